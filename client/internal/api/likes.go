package api

import (
	"context"
	"net/url"

	"github.com/udinmoInc/law/client/internal/types"
)

// InsertLike records that userID liked postID. A duplicate like
// collapses on the backend and surfaces here as types.ErrConflict.
func (g *Gateway) InsertLike(ctx context.Context, postID, userID string) error {
	if err := types.ValidateIDPresent(postID, "postId"); err != nil {
		return err
	}
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return err
	}
	body := map[string]string{"post_id": postID, "user_id": userID}
	return g.post(ctx, g.restURL("likes", nil), body, nil, "insert like")
}

// DeleteLike removes the (postID, userID) like if present.
func (g *Gateway) DeleteLike(ctx context.Context, postID, userID string) error {
	if err := types.ValidateIDPresent(postID, "postId"); err != nil {
		return err
	}
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("post_id", "eq."+postID)
	q.Set("user_id", "eq."+userID)
	return g.delete(ctx, g.restURL("likes", q), "delete like")
}
