package api

import (
	"context"
	"net/url"

	"github.com/udinmoInc/law/client/internal/types"
)

// ListMessages fetches the full message history of a chat in
// (created_at, id) ascending order.
func (g *Gateway) ListMessages(ctx context.Context, chatID string) ([]types.Message, error) {
	if err := types.ValidateIDPresent(chatID, "chatId"); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("chat_id", "eq."+chatID)
	q.Set("order", "created_at.asc,id.asc")

	var msgs []types.Message
	if err := g.get(ctx, g.restURL("messages", q), &msgs, "list messages"); err != nil {
		return nil, err
	}
	return msgs, nil
}

// InsertMessage creates a message and returns the stored record with
// its server-assigned id and timestamp.
func (g *Gateway) InsertMessage(ctx context.Context, chatID, senderID, content string) (*types.Message, error) {
	if err := types.ValidateIDPresent(chatID, "chatId"); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(senderID, "senderId"); err != nil {
		return nil, err
	}
	if err := types.ValidateContent(content, "content"); err != nil {
		return nil, err
	}
	body := map[string]string{"chat_id": chatID, "user_id": senderID, "content": content}

	var msg types.Message
	if err := g.post(ctx, g.restURL("messages", nil), body, &msg, "insert message"); err != nil {
		return nil, err
	}
	return &msg, nil
}
