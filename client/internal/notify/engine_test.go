package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/types"
)

type fakeStore struct {
	list      []types.Notification
	markErr   error
	markCalls int
}

func (f *fakeStore) ListNotifications(context.Context, string, int) ([]types.Notification, error) {
	out := make([]types.Notification, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeStore) MarkNotificationRead(context.Context, string) error {
	f.markCalls++
	return f.markErr
}

func identity(userID string) IdentityFunc {
	return func() *types.Identity { return &types.Identity{UserID: userID} }
}

func notif(id string, read bool) types.Notification {
	return types.Notification{
		ID:          id,
		RecipientID: "me",
		Type:        types.NotificationLike,
		IsRead:      read,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func loaded(t *testing.T, store *fakeStore) *Engine {
	t.Helper()
	e := New(store, identity("me"), nil, zerolog.Nop())
	if _, err := e.LoadNotifications(context.Background(), 50); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e
}

func TestLoadComputesUnread(t *testing.T) {
	store := &fakeStore{list: []types.Notification{
		notif("n1", false),
		notif("n2", true),
		notif("n3", false),
	}}
	e := loaded(t, store)

	if got := e.UnreadCount(); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}
}

func TestInboundPrependsAndIncrements(t *testing.T) {
	e := loaded(t, &fakeStore{list: []types.Notification{notif("n1", true)}})

	e.OnInbound(notif("n2", false))

	items := e.Items()
	if items[0].ID != "n2" {
		t.Fatalf("new notification not first: %s", items[0].ID)
	}
	if got := e.UnreadCount(); got != 1 {
		t.Fatalf("unread = %d, want 1", got)
	}

	// Same push delivered twice.
	e.OnInbound(notif("n2", false))
	if got := len(e.Items()); got != 2 {
		t.Fatalf("duplicate push grew list: %d", got)
	}
	if got := e.UnreadCount(); got != 1 {
		t.Fatalf("duplicate push bumped unread: %d", got)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	store := &fakeStore{list: []types.Notification{notif("n1", false)}}
	e := loaded(t, store)

	if err := e.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := e.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if got := e.UnreadCount(); got != 0 {
		t.Fatalf("unread = %d, want 0", got)
	}
	if store.markCalls != 1 {
		t.Fatalf("gateway called %d times, want 1", store.markCalls)
	}
}

func TestMarkReadRevertsOnFailure(t *testing.T) {
	store := &fakeStore{
		list:    []types.Notification{notif("n1", false)},
		markErr: errors.New("boom"),
	}
	e := loaded(t, store)

	if err := e.MarkRead(context.Background(), "n1"); err == nil {
		t.Fatalf("expected error")
	}
	if got := e.UnreadCount(); got != 1 {
		t.Fatalf("unread not reverted: %d", got)
	}
	if items := e.Items(); items[0].IsRead {
		t.Fatalf("read flag not reverted")
	}
}

func TestMarkReadUnknownID(t *testing.T) {
	e := loaded(t, &fakeStore{})
	if err := e.MarkRead(context.Background(), "nope"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOnNewHookFires(t *testing.T) {
	var gotTitle string
	hook := func(n types.Notification, r Rendered) { gotTitle = r.Title }
	e := New(&fakeStore{}, identity("me"), hook, zerolog.Nop())

	e.OnInbound(notif("n1", false))
	if gotTitle != "New Like" {
		t.Fatalf("hook saw title %q", gotTitle)
	}
}

func TestLoadRequiresIdentity(t *testing.T) {
	e := New(&fakeStore{}, func() *types.Identity { return nil }, nil, zerolog.Nop())
	if _, err := e.LoadNotifications(context.Background(), 10); !errors.Is(err, types.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}
