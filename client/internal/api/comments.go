package api

import (
	"context"
	"net/url"

	"github.com/udinmoInc/law/client/internal/types"
)

// ListComments fetches all comments of a post, oldest first.
func (g *Gateway) ListComments(ctx context.Context, postID string) ([]types.Comment, error) {
	if err := types.ValidateIDPresent(postID, "postId"); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("post_id", "eq."+postID)
	q.Set("order", "created_at.asc")

	var comments []types.Comment
	if err := g.get(ctx, g.restURL("comments", q), &comments, "list comments"); err != nil {
		return nil, err
	}
	return comments, nil
}

// InsertComment creates a comment on postID and returns the record.
func (g *Gateway) InsertComment(ctx context.Context, postID, userID, content string) (*types.Comment, error) {
	if err := types.ValidateIDPresent(postID, "postId"); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return nil, err
	}
	if err := types.ValidateContent(content, "content"); err != nil {
		return nil, err
	}
	body := map[string]string{"post_id": postID, "user_id": userID, "content": content}

	var comment types.Comment
	if err := g.post(ctx, g.restURL("comments", nil), body, &comment, "insert comment"); err != nil {
		return nil, err
	}
	return &comment, nil
}
