package dispatch

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config tunes a Queue. Zero values are replaced with defaults in
// NewQueue, so the empty Config is usable as-is.
type Config struct {
	// Lanes is the number of worker goroutines. Events with the same
	// key always land on the same lane.
	Lanes int `envconfig:"LANES" default:"4"`

	// QueueSize is the per-lane channel capacity.
	QueueSize int `envconfig:"QUEUE_SIZE" default:"256"`

	// EnqueueTimeout bounds how long Submit waits for lane space
	// before reporting ErrQueueFull.
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// MaxAttempts caps retries of a transient job failure.
	MaxAttempts int `envconfig:"MAX_ATTEMPTS" default:"6"`

	// BaseBackoff is the initial retry interval.
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"100ms"`

	// MaxInterval caps the retry interval growth.
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"10s"`

	// ErrorHandler is invoked once per job that exhausts its retries
	// or fails terminally. May be nil.
	ErrorHandler func(error) `ignored:"true"`
}

// LoadConfig reads Config overrides from LAW_DISPATCH_* environment
// variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("LAW_DISPATCH", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Lanes <= 0 {
		c.Lanes = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 6
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
}
