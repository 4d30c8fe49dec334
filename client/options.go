package client

// Functional options applied during construction in New. Options run
// before the API-key transport wrapper is installed and before the
// internal engines are wired, so they may replace the logger, the
// dispatch configuration, or the change-stream dialer wholesale.

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/realtime"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout used by the
// SDK. Prefer per-request context deadlines; this is a coarse safety
// net bounding one whole HTTP exchange. Must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithLogger replaces the no-op default logger. All internal
// components derive their loggers from this one.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request and
// response is dumped to the log when enabled is true. Not for
// production; dumps include headers and bodies.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.http.Transport = &debugTransport{base: c.http.Transport}
		}
		return nil
	}
}

// WithDispatchConfig overrides the event dispatch queue tuning. Zero
// fields keep their defaults.
func WithDispatchConfig(cfg DispatchConfig) Option {
	return func(c *Client) error {
		c.dispatchCfg = cfg
		return nil
	}
}

// WithRealtimeURL sets an explicit change-stream endpoint instead of
// deriving one from the base URL.
func WithRealtimeURL(wsURL string) Option {
	return func(c *Client) error {
		if wsURL == "" {
			return fmt.Errorf("realtime URL cannot be empty")
		}
		c.realtimeURL = wsURL
		return nil
	}
}

// WithReopenPolicy tunes how the change stream reconnects after a
// transport failure. onFailure, when set, fires once per open topic
// when reconnect attempts are exhausted.
func WithReopenPolicy(initial, max time.Duration, maxReopens uint64, onFailure func(topic string, err error)) Option {
	return func(c *Client) error {
		c.realtimeCfg = realtime.Config{
			InitialBackoff: initial,
			MaxBackoff:     max,
			MaxReopens:     maxReopens,
			OnFailure:      onFailure,
		}
		return nil
	}
}

// WithRealtimeDialer injects a change-stream dialer. Intended for
// tests that supply a fake stream.
func WithRealtimeDialer(d StreamDialer) Option {
	return func(c *Client) error {
		if d == nil {
			return fmt.Errorf("dialer cannot be nil")
		}
		c.dialer = d
		return nil
	}
}

// WithNotificationHook registers a callback invoked for every inbound
// notification with its display form, for toasts and badges.
func WithNotificationHook(h NotificationHook) Option {
	return func(c *Client) error {
		c.onNotification = h
		return nil
	}
}
