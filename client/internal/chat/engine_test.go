package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/types"
)

type fakeStore struct {
	chats    []types.Chat
	messages []types.Message
	profiles map[string]types.Profile

	insertErr   error
	insertCalls int
	createCalls int
	nextMsgID   string
	nextSentAt  time.Time
}

func (f *fakeStore) ListChats(context.Context, string) ([]types.Chat, error) {
	out := make([]types.Chat, len(f.chats))
	copy(out, f.chats)
	return out, nil
}

func (f *fakeStore) ListMessages(context.Context, string) ([]types.Message, error) {
	out := make([]types.Message, len(f.messages))
	copy(out, f.messages)
	return out, nil
}

func (f *fakeStore) Participants(context.Context, string) ([]types.Profile, error) {
	return nil, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, chatID, senderID, content string) (*types.Message, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	id := f.nextMsgID
	if id == "" {
		id = "m1"
	}
	return &types.Message{ID: id, ChatID: chatID, SenderID: senderID, Content: content, SentAt: f.nextSentAt}, nil
}

func (f *fakeStore) ProfileByUsername(_ context.Context, username string) (*types.Profile, error) {
	p, ok := f.profiles[username]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) CreateChat(_ context.Context, participantIDs []string) (*types.Chat, error) {
	f.createCalls++
	return &types.Chat{ID: "chat-new", CreatedAt: time.Now()}, nil
}

func identity(userID string) IdentityFunc {
	return func() *types.Identity { return &types.Identity{UserID: userID, Username: userID} }
}

func ts(sec int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, sec, 0, time.UTC)
}

func openEngine(t *testing.T, store *fakeStore, chatID string) *Engine {
	t.Helper()
	e := New(store, identity("me"), zerolog.Nop())
	if _, err := e.LoadChats(context.Background()); err != nil {
		t.Fatalf("load chats: %v", err)
	}
	if _, err := e.OpenChat(context.Background(), chatID); err != nil {
		t.Fatalf("open chat: %v", err)
	}
	return e
}

func TestSendThenEchoYieldsSingleEntry(t *testing.T) {
	store := &fakeStore{
		chats:      []types.Chat{{ID: "c1", CreatedAt: ts(0)}},
		nextMsgID:  "m9",
		nextSentAt: ts(5),
	}
	e := openEngine(t, store, "c1")

	msg, err := e.SendMessage(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// The backend pushes our own insert back at us.
	e.OnInboundMessage(*msg)

	tr := e.Transcript()
	if len(tr) != 1 {
		t.Fatalf("transcript has %d entries, want 1", len(tr))
	}
	if tr[0].ID != "m9" || tr[0].Pending {
		t.Fatalf("unexpected entry: %+v", tr[0])
	}
}

func TestSendFailureLeavesTranscriptUntouched(t *testing.T) {
	store := &fakeStore{
		chats:     []types.Chat{{ID: "c1", CreatedAt: ts(0)}},
		insertErr: errors.New("boom"),
	}
	e := openEngine(t, store, "c1")

	if _, err := e.SendMessage(context.Background(), "c1", "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if tr := e.Transcript(); len(tr) != 0 {
		t.Fatalf("pending entry survived failure: %+v", tr)
	}
}

func TestSendRejectsBlankContent(t *testing.T) {
	store := &fakeStore{chats: []types.Chat{{ID: "c1", CreatedAt: ts(0)}}}
	e := openEngine(t, store, "c1")

	if _, err := e.SendMessage(context.Background(), "c1", "  \n "); !types.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.insertCalls != 0 {
		t.Fatalf("gateway called for blank content")
	}
}

func TestTranscriptOrderBreaksTimestampTiesByID(t *testing.T) {
	same := ts(10)
	store := &fakeStore{
		chats: []types.Chat{{ID: "c1", CreatedAt: ts(0)}},
		messages: []types.Message{
			{ID: "b", ChatID: "c1", Content: "second", SentAt: same},
			{ID: "a", ChatID: "c1", Content: "first", SentAt: same},
			{ID: "c", ChatID: "c1", Content: "third", SentAt: ts(11)},
		},
	}
	e := openEngine(t, store, "c1")

	tr := e.Transcript()
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if tr[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, tr[i].ID, id)
		}
	}
}

func TestInboundDuplicateIgnored(t *testing.T) {
	store := &fakeStore{chats: []types.Chat{{ID: "c1", CreatedAt: ts(0)}}}
	e := openEngine(t, store, "c1")

	m := types.Message{ID: "m1", ChatID: "c1", Content: "same text", SentAt: ts(1)}
	e.OnInboundMessage(m)
	e.OnInboundMessage(m)

	if tr := e.Transcript(); len(tr) != 1 {
		t.Fatalf("duplicate not collapsed: %d entries", len(tr))
	}
}

func TestIdenticalContentDistinctIDsBothKept(t *testing.T) {
	store := &fakeStore{chats: []types.Chat{{ID: "c1", CreatedAt: ts(0)}}}
	e := openEngine(t, store, "c1")

	e.OnInboundMessage(types.Message{ID: "m1", ChatID: "c1", Content: "hey", SentAt: ts(1)})
	e.OnInboundMessage(types.Message{ID: "m2", ChatID: "c1", Content: "hey", SentAt: ts(1)})

	if tr := e.Transcript(); len(tr) != 2 {
		t.Fatalf("dedup must be by id, not content: %d entries", len(tr))
	}
}

func TestInboundForInactiveChatOnlyTouchesList(t *testing.T) {
	store := &fakeStore{chats: []types.Chat{
		{ID: "c1", CreatedAt: ts(0)},
		{ID: "c2", CreatedAt: ts(1)},
	}}
	e := openEngine(t, store, "c1")

	e.OnInboundMessage(types.Message{ID: "m5", ChatID: "c2", Content: "yo", SentAt: ts(30)})

	if tr := e.Transcript(); len(tr) != 0 {
		t.Fatalf("inactive chat message leaked into transcript")
	}
	chats := e.Chats()
	if chats[0].ID != "c2" {
		t.Fatalf("chat list not reordered by last message: first is %s", chats[0].ID)
	}
	if chats[0].LastMessage == nil || chats[0].LastMessage.Content != "yo" {
		t.Fatalf("last message projection not updated: %+v", chats[0].LastMessage)
	}
}

func TestCreateChatUnknownUsernameCreatesNothing(t *testing.T) {
	store := &fakeStore{profiles: map[string]types.Profile{}}
	e := New(store, identity("me"), zerolog.Nop())

	if _, err := e.CreateChat(context.Background(), "ghost"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("chat created despite unresolved username")
	}
}

func TestCreateChatBecomesActive(t *testing.T) {
	store := &fakeStore{profiles: map[string]types.Profile{
		"peer": {UserID: "u-peer", Username: "peer"},
	}}
	e := New(store, identity("me"), zerolog.Nop())

	c, err := e.CreateChat(context.Background(), "peer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.ActiveChat() != c.ID {
		t.Fatalf("new chat not active")
	}
	if len(c.Participants) != 2 {
		t.Fatalf("participants not filled: %+v", c.Participants)
	}
}

func TestCloseChatStopsTranscriptUpdates(t *testing.T) {
	store := &fakeStore{chats: []types.Chat{{ID: "c1", CreatedAt: ts(0)}}}
	e := openEngine(t, store, "c1")
	e.CloseChat()

	e.OnInboundMessage(types.Message{ID: "m1", ChatID: "c1", Content: "late", SentAt: ts(2)})
	if tr := e.Transcript(); len(tr) != 0 {
		t.Fatalf("closed chat still accumulating: %d", len(tr))
	}
}
