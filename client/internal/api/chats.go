package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/udinmoInc/law/client/internal/types"
)

// ListChats fetches the chats viewerID participates in, including
// participant profiles and the last-message projection.
func (g *Gateway) ListChats(ctx context.Context, viewerID string) ([]types.Chat, error) {
	if err := types.ValidateIDPresent(viewerID, "viewerId"); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "*,participants:chat_participants(profiles(*)),last_message")
	q.Set("participant", "eq."+viewerID)

	var chats []types.Chat
	if err := g.get(ctx, g.restURL("chats", q), &chats, "list chats"); err != nil {
		return nil, err
	}
	return chats, nil
}

// Participants fetches the participant profiles of a chat.
func (g *Gateway) Participants(ctx context.Context, chatID string) ([]types.Profile, error) {
	if err := types.ValidateIDPresent(chatID, "chatId"); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "profiles(*)")
	q.Set("chat_id", "eq."+chatID)

	var rows []struct {
		Profile types.Profile `json:"profiles"`
	}
	if err := g.get(ctx, g.restURL("chat_participants", q), &rows, "chat participants"); err != nil {
		return nil, err
	}
	profiles := make([]types.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.Profile)
	}
	return profiles, nil
}

// CreateChat creates a chat with the given participants in one call.
// The backend creates the chat row and its participant rows
// atomically, so an invalid participant leaves nothing behind.
func (g *Gateway) CreateChat(ctx context.Context, participantIDs []string) (*types.Chat, error) {
	if len(participantIDs) < 2 {
		return nil, &types.ValidationError{Field: "participants", Reason: "a chat needs at least two participants"}
	}
	for _, id := range participantIDs {
		if err := types.ValidateIDPresent(id, "participantId"); err != nil {
			return nil, err
		}
	}
	body := map[string]any{"participant_ids": participantIDs}

	var chat types.Chat
	u := fmt.Sprintf("%s/rest/v1/chats", g.baseURL)
	if err := g.post(ctx, u, body, &chat, "create chat"); err != nil {
		return nil, err
	}
	return &chat, nil
}
