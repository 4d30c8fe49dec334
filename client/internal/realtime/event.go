// Package realtime owns the change-stream connection to the backend
// and the lifecycle of topic subscriptions. Push events flow one way:
// from the stream, through the dispatch queue, into the engine
// handler registered for the originating table.
package realtime

import (
	"encoding/json"
	"strings"
)

// Operation is the kind of row change a push event reports.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (o Operation) valid() bool {
	switch o {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Event is a single change pushed by the backend.
type Event struct {
	Topic     string
	Table     string
	Operation Operation
	Record    json.RawMessage
}

// Topic builds a topic key from a table name and an optional filter.
// The topic key identifies a subscription: at most one live
// subscription exists per key.
func Topic(table, filter string) string {
	if filter == "" {
		return table
	}
	return table + ":" + filter
}

// TableOf extracts the table name from a topic key.
func TableOf(topic string) string {
	if i := strings.IndexByte(topic, ':'); i >= 0 {
		return topic[:i]
	}
	return topic
}

// MessagesTopic subscribes to inserts for one chat.
func MessagesTopic(chatID string) string {
	return Topic("messages", "chat_id=eq."+chatID)
}

// NotificationsTopic subscribes to inserts for one recipient. The key
// embeds the identity, so identity teardown closes it.
func NotificationsTopic(userID string) string {
	return Topic("notifications", "user_id=eq."+userID)
}

// LikesTopic subscribes to like inserts and deletes for all posts.
func LikesTopic() string { return Topic("likes", "") }

// CommentsTopic subscribes to comment inserts for all posts.
func CommentsTopic() string { return Topic("comments", "") }

// clientFrame is what the client writes on the stream.
type clientFrame struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Topic  string `json:"topic"`
}

// serverFrame is what the backend pushes.
type serverFrame struct {
	Topic     string          `json:"topic"`
	Table     string          `json:"table"`
	Operation Operation       `json:"operation"`
	Record    json.RawMessage `json:"record"`
}
