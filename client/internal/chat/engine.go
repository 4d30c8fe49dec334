// Package chat maintains per-chat message ordering and the chat list
// projection, merging locally sent messages with pushed inserts.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/realtime"
	"github.com/udinmoInc/law/client/internal/types"
)

// Store is the slice of the gateway the conversation engine needs.
type Store interface {
	ListChats(ctx context.Context, viewerID string) ([]types.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]types.Message, error)
	Participants(ctx context.Context, chatID string) ([]types.Profile, error)
	InsertMessage(ctx context.Context, chatID, senderID, content string) (*types.Message, error)
	ProfileByUsername(ctx context.Context, username string) (*types.Profile, error)
	CreateChat(ctx context.Context, participantIDs []string) (*types.Chat, error)
}

// IdentityFunc reports the current identity, or nil when signed out.
type IdentityFunc func() *types.Identity

// Engine owns the active-chat transcript and the chat list. At most
// one chat is active at a time; pushes for other chats still update
// the list's last-message projection.
type Engine struct {
	store    Store
	identity IdentityFunc
	log      zerolog.Logger

	mu           sync.Mutex
	chats        map[string]*types.Chat
	active       string
	epoch        uint64 // context token; bumped whenever the active chat changes
	confirmed    []types.Message
	pending      []types.Message
	participants []types.Profile
	seen         map[string]bool // confirmed message ids in the transcript
}

// New constructs a conversation engine.
func New(store Store, identity IdentityFunc, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		identity: identity,
		log:      log.With().Str("component", "chat").Logger(),
		chats:    make(map[string]*types.Chat),
		seen:     make(map[string]bool),
	}
}

// LoadChats refreshes the chat list for the viewer.
func (e *Engine) LoadChats(ctx context.Context) ([]types.Chat, error) {
	id := e.identity()
	if id == nil {
		return nil, types.ErrNoIdentity
	}
	chats, err := e.store.ListChats(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.chats = make(map[string]*types.Chat, len(chats))
	for i := range chats {
		c := chats[i]
		e.chats[c.ID] = &c
	}
	return e.chatListLocked(), nil
}

// OpenChat loads the full ordered history and participant list of a
// chat and makes it the active chat. A result arriving after the
// active chat changed again is discarded.
func (e *Engine) OpenChat(ctx context.Context, chatID string) ([]types.Message, error) {
	if err := types.ValidateIDPresent(chatID, "chatId"); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.epoch++
	token := e.epoch
	e.active = chatID
	e.confirmed = nil
	e.pending = nil
	e.participants = nil
	e.seen = make(map[string]bool)
	e.mu.Unlock()

	msgs, err := e.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	parts, err := e.store.Participants(ctx, chatID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != token {
		// Another chat was opened while we were loading.
		return nil, nil
	}
	sort.SliceStable(msgs, func(i, j int) bool { return lessMessage(msgs[i], msgs[j]) })
	e.confirmed = msgs
	e.participants = parts
	for _, m := range msgs {
		e.seen[m.ID] = true
	}
	return e.transcriptLocked(), nil
}

// CloseChat deactivates the current chat; pending pushes for it are
// discarded from now on.
func (e *Engine) CloseChat() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.active = ""
	e.confirmed = nil
	e.pending = nil
	e.participants = nil
	e.seen = make(map[string]bool)
}

// SendMessage appends a pending message immediately, issues the
// write, and on acknowledgment replaces the pending entry with the
// confirmed record. On failure the pending entry is removed and the
// transcript is exactly as before the call.
func (e *Engine) SendMessage(ctx context.Context, chatID, content string) (*types.Message, error) {
	id := e.identity()
	if id == nil {
		return nil, types.ErrNoIdentity
	}
	content = strings.TrimSpace(content)
	if err := types.ValidateContent(content, "content"); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(chatID, "chatId"); err != nil {
		return nil, err
	}

	ref := "pending-" + ulid.Make().String()

	e.mu.Lock()
	token := e.epoch
	if e.active == chatID {
		e.pending = append(e.pending, types.Message{
			ID:       ref,
			ChatID:   chatID,
			SenderID: id.UserID,
			Content:  content,
			Pending:  true,
		})
	}
	e.mu.Unlock()

	msg, err := e.store.InsertMessage(ctx, chatID, id.UserID, content)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch == token {
		e.removePendingLocked(ref)
	}
	if err != nil {
		return nil, err
	}

	if e.epoch == token && e.active == chatID {
		e.insertConfirmedLocked(*msg)
	}
	e.touchChatLocked(msg.ChatID, msg.Content, msg)
	return msg, nil
}

// OnInboundMessage merges one pushed insert. A message whose id is
// already present (the sender's own confirmed message echoed back) is
// ignored; dedup is by id, never by content.
func (e *Engine) OnInboundMessage(m types.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == m.ChatID {
		e.insertConfirmedLocked(m)
	}
	e.touchChatLocked(m.ChatID, m.Content, &m)
}

// CreateChat resolves peerUsername and creates a two-participant chat
// with the viewer, which becomes active. An unresolvable username
// fails with NotFound and creates nothing.
func (e *Engine) CreateChat(ctx context.Context, peerUsername string) (*types.Chat, error) {
	id := e.identity()
	if id == nil {
		return nil, types.ErrNoIdentity
	}
	peerUsername = strings.TrimSpace(peerUsername)
	if err := types.ValidateContent(peerUsername, "username"); err != nil {
		return nil, err
	}

	peer, err := e.store.ProfileByUsername(ctx, peerUsername)
	if err != nil {
		return nil, err
	}

	chat, err := e.store.CreateChat(ctx, []string{id.UserID, peer.UserID})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	c := *chat
	if len(c.Participants) == 0 {
		c.Participants = []types.Profile{
			{UserID: id.UserID, Username: id.Username, AvatarURL: id.AvatarURL},
			*peer,
		}
	}
	e.chats[c.ID] = &c
	e.epoch++
	e.active = c.ID
	e.confirmed = nil
	e.pending = nil
	e.participants = c.Participants
	e.seen = make(map[string]bool)
	return &c, nil
}

// HandleEvent is the supervisor's entry point for the messages table.
func (e *Engine) HandleEvent(_ context.Context, ev realtime.Event) error {
	if ev.Operation != realtime.OpInsert {
		// Messages are immutable; nothing to merge.
		return nil
	}
	var m types.Message
	if err := json.Unmarshal(ev.Record, &m); err != nil {
		return fmt.Errorf("decode message record: %w", err)
	}
	if m.ID == "" || m.ChatID == "" {
		return fmt.Errorf("message record missing id or chat_id")
	}
	e.OnInboundMessage(m)
	return nil
}

// ActiveChat returns the id of the active chat, if any.
func (e *Engine) ActiveChat() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Transcript returns the active chat's messages: confirmed entries in
// (timestamp, id) order followed by pending entries in send order.
func (e *Engine) Transcript() []types.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcriptLocked()
}

// Participants returns the active chat's participant profiles.
func (e *Engine) Participants() []types.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Profile, len(e.participants))
	copy(out, e.participants)
	return out
}

// Chats returns the chat list ordered by last message, newest first.
func (e *Engine) Chats() []types.Chat {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chatListLocked()
}

// Reset discards all derived state. Called on identity change.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.chats = make(map[string]*types.Chat)
	e.active = ""
	e.confirmed = nil
	e.pending = nil
	e.participants = nil
	e.seen = make(map[string]bool)
}

// ------------------------- internals -------------------------

// lessMessage is the total transcript order: (timestamp, id)
// ascending, id breaking timestamp ties.
func lessMessage(a, b types.Message) bool {
	if !a.SentAt.Equal(b.SentAt) {
		return a.SentAt.Before(b.SentAt)
	}
	return a.ID < b.ID
}

func (e *Engine) insertConfirmedLocked(m types.Message) {
	if e.seen[m.ID] {
		return
	}
	e.seen[m.ID] = true
	i := sort.Search(len(e.confirmed), func(i int) bool {
		return lessMessage(m, e.confirmed[i])
	})
	e.confirmed = append(e.confirmed, types.Message{})
	copy(e.confirmed[i+1:], e.confirmed[i:])
	e.confirmed[i] = m
}

func (e *Engine) removePendingLocked(ref string) {
	for i := range e.pending {
		if e.pending[i].ID == ref {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// touchChatLocked updates a chat's last-message projection; the list
// reorders on the next read.
func (e *Engine) touchChatLocked(chatID, content string, m *types.Message) {
	c, ok := e.chats[chatID]
	if !ok {
		return
	}
	if c.LastMessage == nil || !m.SentAt.Before(c.LastMessage.SentAt) {
		c.LastMessage = &types.LastMessage{Content: content, SentAt: m.SentAt}
	}
}

func (e *Engine) transcriptLocked() []types.Message {
	out := make([]types.Message, 0, len(e.confirmed)+len(e.pending))
	out = append(out, e.confirmed...)
	out = append(out, e.pending...)
	return out
}

func (e *Engine) chatListLocked() []types.Chat {
	out := make([]types.Chat, 0, len(e.chats))
	for _, c := range e.chats {
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].LastMessage, out[j].LastMessage
		switch {
		case li == nil && lj == nil:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		case li == nil:
			return false
		case lj == nil:
			return true
		default:
			return li.SentAt.After(lj.SentAt)
		}
	})
	return out
}
