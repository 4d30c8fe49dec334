package types

import (
	"encoding/json"
	"time"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Identity is the authenticated user as reported by the embedding
// application. The SDK never creates or refreshes identities itself.
type Identity struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Profile is the public projection of a user.
type Profile struct {
	UserID    string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Post carries the derived counters maintained by the feed engine.
// LikeCount and CommentCount are never negative; ViewerHasLiked is
// always false when no identity is signed in.
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"user_id"`
	Author         *Profile  `json:"profiles,omitempty"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"image_url,omitempty"`
	GroupID        string    `json:"group_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LikeCount      int       `json:"likes_count"`
	CommentCount   int       `json:"comments_count"`
	ViewerHasLiked bool      `json:"user_has_liked"`
}

// Like is a (post, user) pair; the backend enforces uniqueness.
type Like struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Chat groups two or more participants. LastMessage is a derived
// projection used for list ordering and display.
type Chat struct {
	ID           string       `json:"id"`
	Participants []Profile    `json:"participants,omitempty"`
	LastMessage  *LastMessage `json:"last_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// LastMessage is the newest message of a chat, for list display.
type LastMessage struct {
	Content string    `json:"content"`
	SentAt  time.Time `json:"created_at"`
}

// Message is immutable once created. Transcript order is
// (SentAt, ID) ascending; the id breaks timestamp ties.
type Message struct {
	ID       string    `json:"id"`
	ChatID   string    `json:"chat_id"`
	SenderID string    `json:"user_id"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"created_at"`

	// Pending marks a locally appended message that has not been
	// acknowledged by the backend yet. Never set on wire records.
	Pending bool `json:"-"`
}

// NotificationType tags the payload variant of a notification.
type NotificationType string

const (
	NotificationLike        NotificationType = "like"
	NotificationComment     NotificationType = "comment"
	NotificationFollow      NotificationType = "follow"
	NotificationMention     NotificationType = "mention"
	NotificationGroupInvite NotificationType = "group_invite"
)

// Notification is created by the backend as a side effect of other
// users' actions. The client only ever flips IsRead.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"user_id"`
	Type        NotificationType `json:"type"`
	Data        json.RawMessage  `json:"data,omitempty"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationData is the union of payload fields across all
// notification types. Absent fields decode to zero values.
type NotificationData struct {
	Username  string `json:"username,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}

// Group is read-only from this SDK's perspective.
type Group struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Private     bool   `json:"private"`
	MemberCount int    `json:"member_count"`
}
