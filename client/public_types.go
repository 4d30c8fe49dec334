package client

import (
	"github.com/udinmoInc/law/client/internal/dispatch"
	"github.com/udinmoInc/law/client/internal/notify"
	"github.com/udinmoInc/law/client/internal/realtime"
	"github.com/udinmoInc/law/client/internal/types"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	CreatePostRequest = types.CreatePostRequest
	FeedFilter        = types.FeedFilter

	// Domain entities
	Identity     = types.Identity
	Profile      = types.Profile
	Post         = types.Post
	Comment      = types.Comment
	Chat         = types.Chat
	LastMessage  = types.LastMessage
	Message      = types.Message
	Notification = types.Notification
	Group        = types.Group

	// Notification payloads and display form
	NotificationType     = types.NotificationType
	NotificationData     = types.NotificationData
	RenderedNotification = notify.Rendered

	// Tuning and test seams
	DispatchConfig = dispatch.Config
	StreamEvent    = realtime.Event
	StreamConn     = realtime.Conn
	StreamDialer   = realtime.Dialer
)

// NotificationHook observes inbound notifications with their display
// form. See WithNotificationHook.
type NotificationHook = func(n Notification, r RenderedNotification)

// Notification type tags re-exported for switch statements.
const (
	NotificationLike        = types.NotificationLike
	NotificationComment     = types.NotificationComment
	NotificationFollow      = types.NotificationFollow
	NotificationMention     = types.NotificationMention
	NotificationGroupInvite = types.NotificationGroupInvite
)
