// Package client is the synchronization SDK for the social backend:
// REST reads and writes, optimistic local mutations, and a push
// change-stream merged into derived projections (feed counters, chat
// transcripts, notifications) that stay consistent without refetching.
package client

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/api"
	"github.com/udinmoInc/law/client/internal/chat"
	"github.com/udinmoInc/law/client/internal/dispatch"
	"github.com/udinmoInc/law/client/internal/feed"
	"github.com/udinmoInc/law/client/internal/notify"
	"github.com/udinmoInc/law/client/internal/realtime"
	"github.com/udinmoInc/law/client/internal/types"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger

	// construction knobs, consumed at the end of New
	realtimeURL    string
	dialer         realtime.Dialer
	dispatchCfg    dispatch.Config
	realtimeCfg    realtime.Config
	onNotification NotificationHook

	gw    *api.Gateway
	queue *dispatch.Queue
	sup   *realtime.Supervisor
	sess  *session

	feed   *feed.Engine
	chat   *chat.Engine
	notify *notify.Engine

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client against baseURL, authenticating every
// request with apiKey. Additional options via functional arguments.
func New(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}
	if apiKey == "" {
		panic("apiKey cannot be empty")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zerolog.Nop(),
		sess:    &session{},
	}
	if cfg, err := dispatch.LoadConfig(); err == nil {
		c.dispatchCfg = cfg
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}

	// Wrap the transport so every request carries the API key.
	c.wrapTransportWithAPIKey()

	c.gw = api.New(c.http, c.baseURL, c.log)
	c.queue = dispatch.NewQueue(c.dispatchCfg, c.log)

	if c.dialer == nil {
		c.dialer = realtime.NewDialer(c.realtimeWSURL(), c.apiKey, c.log)
	}
	c.sup = realtime.NewSupervisor(c.dialer, c.queue, c.realtimeCfg, c.log)

	identity := c.sess.current
	c.feed = feed.New(c.gw, identity, c.log)
	c.chat = chat.New(c.gw, identity, c.log)
	c.notify = notify.New(c.gw, identity, notify.NewFunc(c.onNotification), c.log)

	c.sup.RegisterHandler("likes", c.feed.HandleEvent)
	c.sup.RegisterHandler("comments", c.feed.HandleEvent)
	c.sup.RegisterHandler("messages", c.chat.HandleEvent)
	c.sup.RegisterHandler("notifications", c.notify.HandleEvent)

	// Identity boundary: tear down the outgoing identity's stream state
	// before anything for the next identity can open.
	c.sess.subscribe(func(old, new *types.Identity) {
		identityChangesTotal.Inc()
		c.sup.CloseAll()
		c.feed.Reset()
		c.chat.Reset()
		c.notify.Reset()
	})

	return c
}

// realtimeWSURL derives the change-stream endpoint from baseURL unless
// an explicit one was configured.
func (c *Client) realtimeWSURL() string {
	if c.realtimeURL != "" {
		return c.realtimeURL
	}
	ws := c.baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + "/realtime/v1"
}

// wrapTransportWithAPIKey wraps the HTTP client's transport to add the
// Authorization header to all requests.
func (c *Client) wrapTransportWithAPIKey() {
	baseTransport := c.http.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	c.http.Transport = &apiKeyTransport{
		base:   baseTransport,
		apiKey: c.apiKey,
	}
}

// apiKeyTransport wraps an http.RoundTripper to add the Authorization header.
type apiKeyTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(cloned)
}

// Close stops the change stream and drains the dispatch queue. Safe to
// call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	err := c.sup.Close()
	c.queue.Stop()
	return err
}

// --------------------------------------------------------------------
// Identity
// --------------------------------------------------------------------

// SignIn reports a new authenticated identity to the SDK. All derived
// state of the previous identity is discarded first.
func (c *Client) SignIn(id Identity) {
	c.sess.set(&id)
}

// SignOut clears the identity. Viewer-scoped state resets; public
// reads keep working.
func (c *Client) SignOut() {
	c.sess.set(nil)
}

// CurrentIdentity returns a copy of the signed-in identity, or nil.
func (c *Client) CurrentIdentity() *Identity {
	return c.sess.current()
}

// OnIdentityChange registers a hook invoked after every SignIn and
// SignOut, once internal state for the outgoing identity is discarded.
func (c *Client) OnIdentityChange(h func(old, new *Identity)) {
	c.sess.subscribe(h)
}

// --------------------------------------------------------------------
// Feed operations
// --------------------------------------------------------------------

// LoadFeed fetches a page of posts matching filter with their derived
// counters, replacing the local feed snapshot.
func (c *Client) LoadFeed(ctx context.Context, filter FeedFilter, limit int) ([]Post, error) {
	return c.feed.LoadFeed(ctx, filter, limit)
}

// Feed returns the current local feed snapshot in display order.
func (c *Client) Feed() []Post {
	return c.feed.Snapshot()
}

// Post returns one post from the local snapshot.
func (c *Client) Post(postID string) (Post, bool) {
	return c.feed.Post(postID)
}

// ToggleLike flips the viewer's like on a post. The local count moves
// immediately; a failed write reverts it.
func (c *Client) ToggleLike(ctx context.Context, postID string) error {
	return c.feed.ApplyLikeToggle(ctx, postID)
}

// AddComment creates a comment and bumps the local comment counter.
func (c *Client) AddComment(ctx context.Context, postID, content string) (*Comment, error) {
	return c.feed.AddComment(ctx, postID, content)
}

// ListComments fetches a post's comments, oldest first.
func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	return c.gw.ListComments(ctx, postID)
}

// CreatePost publishes a new post as the viewer.
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	return c.feed.CreatePost(ctx, req)
}

// GetPost fetches one post directly from the backend.
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	return c.gw.GetPost(ctx, postID)
}

// UploadImage stores image bytes and returns the public URL to put in
// a CreatePostRequest.
func (c *Client) UploadImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	return c.gw.UploadImage(ctx, data, mimeType)
}

// --------------------------------------------------------------------
// Chat operations
// --------------------------------------------------------------------

// LoadChats fetches the viewer's chat list, newest activity first.
func (c *Client) LoadChats(ctx context.Context) ([]Chat, error) {
	return c.chat.LoadChats(ctx)
}

// Chats returns the local chat list, newest activity first.
func (c *Client) Chats() []Chat {
	return c.chat.Chats()
}

// OpenChat makes chatID the active chat and returns its ordered
// transcript.
func (c *Client) OpenChat(ctx context.Context, chatID string) ([]Message, error) {
	return c.chat.OpenChat(ctx, chatID)
}

// CloseChat deactivates the active chat.
func (c *Client) CloseChat() {
	c.chat.CloseChat()
}

// SendMessage sends content to a chat. The message shows as pending in
// the transcript until the backend acknowledges it.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) (*Message, error) {
	return c.chat.SendMessage(ctx, chatID, content)
}

// StartChat creates a chat between the viewer and peerUsername and
// makes it active.
func (c *Client) StartChat(ctx context.Context, peerUsername string) (*Chat, error) {
	return c.chat.CreateChat(ctx, peerUsername)
}

// Transcript returns the active chat's messages in order, pending
// entries last.
func (c *Client) Transcript() []Message {
	return c.chat.Transcript()
}

// ChatParticipants returns the active chat's participant profiles.
func (c *Client) ChatParticipants() []Profile {
	return c.chat.Participants()
}

// --------------------------------------------------------------------
// Notification operations
// --------------------------------------------------------------------

// LoadNotifications fetches the viewer's notifications, newest first.
func (c *Client) LoadNotifications(ctx context.Context, limit int) ([]Notification, error) {
	return c.notify.LoadNotifications(ctx, limit)
}

// Notifications returns the local notification list, newest first.
func (c *Client) Notifications() []Notification {
	return c.notify.Items()
}

// UnreadCount returns the number of unread notifications held locally.
func (c *Client) UnreadCount() int {
	return c.notify.UnreadCount()
}

// MarkNotificationRead flips one notification to read. Idempotent.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.notify.MarkRead(ctx, notificationID)
}

// RenderNotification maps a notification to its display form.
func (c *Client) RenderNotification(n Notification) RenderedNotification {
	return notify.Classify(n)
}

// --------------------------------------------------------------------
// Profiles and groups
// --------------------------------------------------------------------

// GetProfile fetches a user's public profile.
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return c.gw.GetProfile(ctx, userID)
}

// ProfileByUsername resolves a username to a profile.
func (c *Client) ProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	return c.gw.ProfileByUsername(ctx, username)
}

// ListGroups returns the groups the viewer is a member of.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	id := c.sess.current()
	if id == nil {
		return nil, ErrNoIdentity
	}
	return c.gw.ListGroupsForUser(ctx, id.UserID)
}

// --------------------------------------------------------------------
// Change-stream subscriptions
// --------------------------------------------------------------------

// Watch is a claim on one or more live topic subscriptions. Closing it
// releases the claim; delivery stops when the last claim is released.
type Watch struct {
	handles []*realtime.Handle
}

// Close releases the watch. Idempotent.
func (w *Watch) Close() {
	for _, h := range w.handles {
		h.Close()
	}
}

// WatchFeed opens the like and comment change streams so the feed
// snapshot tracks remote activity.
func (c *Client) WatchFeed(ctx context.Context) (*Watch, error) {
	likes, err := c.sup.Open(ctx, realtime.LikesTopic())
	if err != nil {
		return nil, err
	}
	comments, err := c.sup.Open(ctx, realtime.CommentsTopic())
	if err != nil {
		likes.Close()
		return nil, err
	}
	watchesOpenedTotal.WithLabelValues("feed").Inc()
	return &Watch{handles: []*realtime.Handle{likes, comments}}, nil
}

// WatchChat opens the message stream for one chat.
func (c *Client) WatchChat(ctx context.Context, chatID string) (*Watch, error) {
	h, err := c.sup.Open(ctx, realtime.MessagesTopic(chatID))
	if err != nil {
		return nil, err
	}
	watchesOpenedTotal.WithLabelValues("chat").Inc()
	return &Watch{handles: []*realtime.Handle{h}}, nil
}

// WatchNotifications opens the notification stream for the viewer.
func (c *Client) WatchNotifications(ctx context.Context) (*Watch, error) {
	id := c.sess.current()
	if id == nil {
		return nil, ErrNoIdentity
	}
	h, err := c.sup.Open(ctx, realtime.NotificationsTopic(id.UserID))
	if err != nil {
		return nil, err
	}
	watchesOpenedTotal.WithLabelValues("notifications").Inc()
	return &Watch{handles: []*realtime.Handle{h}}, nil
}

// AwaitSync blocks until every push event received so far for topic
// has been applied to its engine.
func (c *Client) AwaitSync(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.queue.Barrier(ctx, topic)
}
