package types

// ------------------------------
// Request Types
// ------------------------------

// CreatePostRequest holds parameters for a new post. ImageURL, when
// set, must be a public URL previously returned by the asset service.
type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	GroupID  string `json:"group_id,omitempty"`
}

// FeedFilter selects which posts a feed load returns. At most one of
// FollowingOf, GroupID and AuthorID may be set; all empty means the
// global feed.
type FeedFilter struct {
	// FollowingOf limits the feed to authors followed by this user.
	FollowingOf string
	// GroupID limits the feed to a single group.
	GroupID string
	// AuthorID limits the feed to a single author.
	AuthorID string
}
