// Package notify maintains the ordered notification list and its
// unread counter, and classifies inbound records into display form.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/realtime"
	"github.com/udinmoInc/law/client/internal/types"
)

// Store is the slice of the gateway the notification engine needs.
type Store interface {
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]types.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

// IdentityFunc reports the current identity, or nil when signed out.
type IdentityFunc func() *types.Identity

// NewFunc is invoked for every inbound notification with its
// classified display form, for toasts and badges.
type NewFunc func(n types.Notification, r Rendered)

// Engine owns the notification projection. The invariant it
// maintains: unread always equals the number of held entries with
// IsRead false.
type Engine struct {
	store    Store
	identity IdentityFunc
	log      zerolog.Logger
	onNew    NewFunc

	mu     sync.Mutex
	list   []types.Notification // newest first
	index  map[string]int       // id -> position in list
	unread int
}

// New constructs a notification engine. onNew may be nil.
func New(store Store, identity IdentityFunc, onNew NewFunc, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		identity: identity,
		onNew:    onNew,
		log:      log.With().Str("component", "notify").Logger(),
		index:    make(map[string]int),
	}
}

// LoadNotifications fetches the recipient's notifications newest
// first and recomputes the unread counter from scratch.
func (e *Engine) LoadNotifications(ctx context.Context, limit int) ([]types.Notification, error) {
	id := e.identity()
	if id == nil {
		return nil, types.ErrNoIdentity
	}
	list, err := e.store.ListNotifications(ctx, id.UserID, limit)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = list
	e.index = make(map[string]int, len(list))
	e.unread = 0
	for i, n := range list {
		e.index[n.ID] = i
		if !n.IsRead {
			e.unread++
		}
	}
	return e.itemsLocked(), nil
}

// OnInbound merges one pushed notification: prepend and bump the
// unread counter, without refetching. Duplicate ids are ignored.
func (e *Engine) OnInbound(n types.Notification) {
	e.mu.Lock()
	if _, dup := e.index[n.ID]; dup {
		e.mu.Unlock()
		return
	}
	e.list = append([]types.Notification{n}, e.list...)
	e.index = make(map[string]int, len(e.list))
	for i, item := range e.list {
		e.index[item.ID] = i
	}
	if !n.IsRead {
		e.unread++
	}
	onNew := e.onNew
	e.mu.Unlock()

	if onNew != nil {
		onNew(n, Classify(n))
	}
}

// MarkRead flips a notification's read flag. Idempotent: marking an
// already-read entry succeeds with no counter change. The counter is
// clamped at zero. On gateway failure the optimistic flip reverts.
func (e *Engine) MarkRead(ctx context.Context, notificationID string) error {
	if err := types.ValidateIDPresent(notificationID, "notificationId"); err != nil {
		return err
	}

	e.mu.Lock()
	i, ok := e.index[notificationID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("notification %s: %w", notificationID, types.ErrNotFound)
	}
	if e.list[i].IsRead {
		e.mu.Unlock()
		return nil
	}
	e.list[i].IsRead = true
	if e.unread > 0 {
		e.unread--
	}
	e.mu.Unlock()

	if err := e.store.MarkNotificationRead(ctx, notificationID); err != nil {
		e.mu.Lock()
		if j, ok := e.index[notificationID]; ok && e.list[j].IsRead {
			e.list[j].IsRead = false
			e.unread++
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// HandleEvent is the supervisor's entry point for the notifications
// table.
func (e *Engine) HandleEvent(_ context.Context, ev realtime.Event) error {
	if ev.Operation != realtime.OpInsert {
		// Local MarkRead echoes come back as updates; the flag is
		// already applied locally.
		return nil
	}
	var n types.Notification
	if err := json.Unmarshal(ev.Record, &n); err != nil {
		return fmt.Errorf("decode notification record: %w", err)
	}
	if n.ID == "" {
		return fmt.Errorf("notification record without id")
	}
	e.OnInbound(n)
	return nil
}

// UnreadCount returns the number of unread notifications held.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unread
}

// Items returns the held notifications, newest first.
func (e *Engine) Items() []types.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemsLocked()
}

func (e *Engine) itemsLocked() []types.Notification {
	out := make([]types.Notification, len(e.list))
	copy(out, e.list)
	return out
}

// Reset discards all derived state. Called on identity change.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = nil
	e.index = make(map[string]int)
	e.unread = 0
}
