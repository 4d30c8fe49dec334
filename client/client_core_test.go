package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/udinmoInc/law/client/internal/realtime"
)

type stubConn struct {
	events chan realtime.Event
}

func newStubConn() *stubConn {
	return &stubConn{events: make(chan realtime.Event)}
}

func (s *stubConn) Subscribe(string) error        { return nil }
func (s *stubConn) Unsubscribe(string) error      { return nil }
func (s *stubConn) Events() <-chan realtime.Event { return s.events }
func (s *stubConn) Close() error                  { close(s.events); return nil }

func stubDialer() realtime.Dialer {
	return func(context.Context) (realtime.Conn, error) { return newStubConn(), nil }
}

func TestIsBackPressure(t *testing.T) {
	if !IsBackPressure(ErrBackPressure) {
		t.Fatalf("expected back pressure")
	}
	if IsBackPressure(errors.New("other")) {
		t.Fatalf("unexpected back pressure detection")
	}
}

func TestNewPanicsOnEmptyArgs(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New("", "key")
}

func TestCloseIdempotent(t *testing.T) {
	c := New("http://example.com", "test-api-key", WithRealtimeDialer(stubDialer()))
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestWatchNotificationsRequiresIdentity(t *testing.T) {
	c := New("http://example.com", "test-api-key", WithRealtimeDialer(stubDialer()))
	defer func() { _ = c.Close() }()

	if _, err := c.WatchNotifications(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestSignInDiscardsDerivedState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Post{{ID: "p1", LikeCount: 2}})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-api-key", WithRealtimeDialer(stubDialer()))
	defer func() { _ = c.Close() }()

	if _, err := c.LoadFeed(context.Background(), FeedFilter{}, 10); err != nil {
		t.Fatalf("load feed: %v", err)
	}
	if got := len(c.Feed()); got != 1 {
		t.Fatalf("feed = %d posts", got)
	}

	c.SignIn(Identity{UserID: "u1", Username: "u1"})
	if got := len(c.Feed()); got != 0 {
		t.Fatalf("snapshot survived identity change: %d posts", got)
	}
	if c.CurrentIdentity() == nil || c.CurrentIdentity().UserID != "u1" {
		t.Fatalf("identity not set")
	}

	c.SignOut()
	if c.CurrentIdentity() != nil {
		t.Fatalf("identity survived sign-out")
	}
}

func TestAuthHeaderOnEveryRequest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]Post{})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", WithRealtimeDialer(stubDialer()))
	defer func() { _ = c.Close() }()

	if _, err := c.LoadFeed(context.Background(), FeedFilter{}, 5); err != nil {
		t.Fatalf("load feed: %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
}

func TestRenderNotificationFallback(t *testing.T) {
	c := New("http://example.com", "test-api-key", WithRealtimeDialer(stubDialer()))
	defer func() { _ = c.Close() }()

	r := c.RenderNotification(Notification{ID: "n1", Type: "mystery"})
	if r.Title != "Notification" {
		t.Fatalf("fallback title = %q", r.Title)
	}
}
