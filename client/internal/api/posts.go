package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/udinmoInc/law/client/internal/types"
)

// ListPosts fetches a page of posts matching filter, newest first,
// together with their current like and comment counts. Viewer like
// state is resolved separately by ViewerLikes.
func (g *Gateway) ListPosts(ctx context.Context, filter types.FeedFilter, limit int) ([]types.Post, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	q := url.Values{}
	q.Set("select", "*,profiles(*),likes_count,comments_count")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	switch {
	case filter.GroupID != "":
		q.Set("group_id", "eq."+filter.GroupID)
	case filter.AuthorID != "":
		q.Set("user_id", "eq."+filter.AuthorID)
	case filter.FollowingOf != "":
		q.Set("followed_by", "eq."+filter.FollowingOf)
	}

	var posts []types.Post
	if err := g.get(ctx, g.restURL("posts", q), &posts, "list posts"); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post with its counts.
func (g *Gateway) GetPost(ctx context.Context, postID string) (*types.Post, error) {
	if err := types.ValidateIDPresent(postID, "postId"); err != nil {
		return nil, err
	}
	var post types.Post
	u := fmt.Sprintf("%s/rest/v1/posts/%s", g.baseURL, postID)
	if err := g.get(ctx, u, &post, "get post"); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost inserts a new post for author and returns the created
// record.
func (g *Gateway) CreatePost(ctx context.Context, authorID string, req types.CreatePostRequest) (*types.Post, error) {
	if err := types.ValidateIDPresent(authorID, "authorId"); err != nil {
		return nil, err
	}
	if err := types.ValidateContent(req.Content, "content"); err != nil {
		return nil, err
	}
	body := map[string]string{
		"user_id": authorID,
		"content": req.Content,
	}
	if req.ImageURL != "" {
		body["image_url"] = req.ImageURL
	}
	if req.GroupID != "" {
		body["group_id"] = req.GroupID
	}

	var post types.Post
	if err := g.post(ctx, g.restURL("posts", nil), body, &post, "create post"); err != nil {
		return nil, err
	}
	return &post, nil
}

// ViewerLikes reports which of postIDs the viewer has liked.
func (g *Gateway) ViewerLikes(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error) {
	if err := types.ValidateIDPresent(viewerID, "viewerId"); err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return map[string]bool{}, nil
	}

	q := url.Values{}
	q.Set("select", "post_id")
	q.Set("user_id", "eq."+viewerID)
	q.Set("post_id", "in."+inList(postIDs))

	var likes []types.Like
	if err := g.get(ctx, g.restURL("likes", q), &likes, "viewer likes"); err != nil {
		return nil, err
	}
	liked := make(map[string]bool, len(likes))
	for _, l := range likes {
		liked[l.PostID] = true
	}
	return liked, nil
}

func inList(ids []string) string {
	out := "("
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out + ")"
}
