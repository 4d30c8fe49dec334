package client

import (
	"testing"
	"time"
)

func TestWithHTTPTimeout(t *testing.T) {
	c := New("http://example.com", "k", WithRealtimeDialer(stubDialer()), WithHTTPTimeout(5*time.Second))
	defer func() { _ = c.Close() }()
	if c.http.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v", c.http.Timeout)
	}
}

func TestWithHTTPTimeoutRejectsNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New("http://example.com", "k", WithHTTPTimeout(0))
}

func TestWithRealtimeURLRejectsEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New("http://example.com", "k", WithRealtimeURL(""))
}

func TestRealtimeURLDerivedFromBase(t *testing.T) {
	c := New("https://app.example.com", "k", WithRealtimeDialer(stubDialer()))
	defer func() { _ = c.Close() }()
	if got := c.realtimeWSURL(); got != "wss://app.example.com/realtime/v1" {
		t.Fatalf("derived url = %q", got)
	}
}

func TestRealtimeURLOverride(t *testing.T) {
	c := New("https://app.example.com", "k",
		WithRealtimeDialer(stubDialer()),
		WithRealtimeURL("wss://stream.example.com/v2"))
	defer func() { _ = c.Close() }()
	if got := c.realtimeWSURL(); got != "wss://stream.example.com/v2" {
		t.Fatalf("override url = %q", got)
	}
}
