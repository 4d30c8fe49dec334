// Package feed maintains the derived feed projection: per-post like
// and comment counters and the viewer's like state, kept consistent
// while local optimistic actions and remote pushes interleave.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/realtime"
	"github.com/udinmoInc/law/client/internal/types"
)

// CountKind names a per-post counter.
type CountKind string

const (
	KindLike    CountKind = "like"
	KindComment CountKind = "comment"
)

// Store is the slice of the gateway the feed engine needs.
type Store interface {
	ListPosts(ctx context.Context, filter types.FeedFilter, limit int) ([]types.Post, error)
	ViewerLikes(ctx context.Context, viewerID string, postIDs []string) (map[string]bool, error)
	InsertLike(ctx context.Context, postID, userID string) error
	DeleteLike(ctx context.Context, postID, userID string) error
	InsertComment(ctx context.Context, postID, userID, content string) (*types.Comment, error)
	CreatePost(ctx context.Context, authorID string, req types.CreatePostRequest) (*types.Post, error)
}

// IdentityFunc reports the current identity, or nil when signed out.
type IdentityFunc func() *types.Identity

// echoKey identifies one expected push echo of an optimistic local
// mutation: same post, same actor, same counter, same signed delta.
type echoKey struct {
	postID  string
	actorID string
	kind    CountKind
	delta   int
}

// Engine owns the feed snapshot. All mutation goes through its
// methods; counts move only by signed increments, never absolute
// overwrites, so local and pushed deltas merge without re-fetching.
type Engine struct {
	store    Store
	identity IdentityFunc
	log      zerolog.Logger

	mu      sync.Mutex
	posts   map[string]*types.Post
	order   []string // snapshot display order, newest first
	pending map[echoKey]int
	epoch   uint64 // bumped on every snapshot replacement
}

// New constructs a feed engine.
func New(store Store, identity IdentityFunc, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		identity: identity,
		log:      log.With().Str("component", "feed").Logger(),
		posts:    make(map[string]*types.Post),
		pending:  make(map[echoKey]int),
	}
}

// LoadFeed replaces the snapshot with a fresh page of posts matching
// filter. ViewerHasLiked is attached only when an identity is signed
// in; signed out it is always false.
func (e *Engine) LoadFeed(ctx context.Context, filter types.FeedFilter, limit int) ([]types.Post, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	posts, err := e.store.ListPosts(ctx, filter, limit)
	if err != nil {
		return nil, err
	}

	if id := e.identity(); id != nil && len(posts) > 0 {
		ids := make([]string, len(posts))
		for i := range posts {
			ids[i] = posts[i].ID
		}
		liked, err := e.store.ViewerLikes(ctx, id.UserID, ids)
		if err != nil {
			return nil, err
		}
		for i := range posts {
			posts[i].ViewerHasLiked = liked[posts[i].ID]
		}
	} else {
		for i := range posts {
			posts[i].ViewerHasLiked = false
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.posts = make(map[string]*types.Post, len(posts))
	e.order = make([]string, 0, len(posts))
	// Pending echo markers survive the reload: a write still in
	// flight (or committed just before the read) is already reflected
	// in the fresh counts, and its push echo must not count again.
	for i := range posts {
		p := posts[i]
		e.posts[p.ID] = &p
		e.order = append(e.order, p.ID)
	}
	return e.snapshotLocked(), nil
}

// ApplyLikeToggle flips the viewer's like on postID: optimistic count
// adjustment first, then the gateway write. On failure the optimistic
// change is reverted and the error returned; the visible count never
// reflects a write that did not succeed.
func (e *Engine) ApplyLikeToggle(ctx context.Context, postID string) error {
	id := e.identity()
	if id == nil {
		return types.ErrNoIdentity
	}

	e.mu.Lock()
	p, ok := e.posts[postID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("post %s: %w", postID, types.ErrNotFound)
	}

	liking := !p.ViewerHasLiked
	delta := 1
	if !liking {
		delta = -1
	}
	p.ViewerHasLiked = liking
	p.LikeCount += delta
	if p.LikeCount < 0 {
		p.LikeCount = 0
	}
	key := echoKey{postID: postID, actorID: id.UserID, kind: KindLike, delta: delta}
	e.pending[key]++
	epoch := e.epoch
	e.mu.Unlock()

	var err error
	if liking {
		err = e.store.InsertLike(ctx, postID, id.UserID)
	} else {
		err = e.store.DeleteLike(ctx, postID, id.UserID)
	}
	if errors.Is(err, types.ErrConflict) {
		// The backend collapsed a duplicate: the row already matched
		// the state we wanted. Treated as success; no echo will come
		// for this write, so drop the marker.
		e.mu.Lock()
		e.consumePendingLocked(key)
		e.mu.Unlock()
		return nil
	}
	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.consumePendingLocked(key)
		if e.epoch != epoch {
			// Snapshot was replaced while the write was in flight;
			// nothing left to revert.
			return err
		}
		if p, ok := e.posts[postID]; ok {
			p.ViewerHasLiked = !liking
			p.LikeCount -= delta
			if p.LikeCount < 0 {
				p.LikeCount = 0
			}
		}
		return err
	}
	return nil
}

// AddComment creates a comment with an optimistic comment-count bump,
// reverted if the write fails.
func (e *Engine) AddComment(ctx context.Context, postID, content string) (*types.Comment, error) {
	id := e.identity()
	if id == nil {
		return nil, types.ErrNoIdentity
	}
	if err := types.ValidateContent(content, "content"); err != nil {
		return nil, err
	}

	e.mu.Lock()
	key := echoKey{postID: postID, actorID: id.UserID, kind: KindComment, delta: 1}
	epoch := e.epoch
	if p, ok := e.posts[postID]; ok {
		p.CommentCount++
		e.pending[key]++
	}
	e.mu.Unlock()

	comment, err := e.store.InsertComment(ctx, postID, id.UserID, content)
	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.consumePendingLocked(key)
		if e.epoch == epoch {
			if p, ok := e.posts[postID]; ok {
				p.CommentCount--
				if p.CommentCount < 0 {
					p.CommentCount = 0
				}
			}
		}
		return nil, err
	}
	return comment, nil
}

// CreatePost publishes a new post. The feed snapshot is not touched;
// the post appears on the next load or via its own push event.
func (e *Engine) CreatePost(ctx context.Context, req types.CreatePostRequest) (*types.Post, error) {
	id := e.identity()
	if id == nil {
		return nil, types.ErrNoIdentity
	}
	return e.store.CreatePost(ctx, id.UserID, req)
}

// ApplyCountDelta merges one pushed counter change. A delta whose
// (post, actor, kind, sign) matches a pending optimistic mutation is
// the echo of that mutation and is suppressed exactly once. Deltas
// for posts outside the snapshot are a no-op, not an error.
func (e *Engine) ApplyCountDelta(postID, actorID string, kind CountKind, delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := echoKey{postID: postID, actorID: actorID, kind: kind, delta: delta}
	if e.pending[key] > 0 {
		e.consumePendingLocked(key)
		echoesSuppressedTotal.WithLabelValues(string(kind)).Inc()
		return
	}

	p, ok := e.posts[postID]
	if !ok {
		return
	}
	deltasAppliedTotal.WithLabelValues(string(kind)).Inc()
	switch kind {
	case KindLike:
		p.LikeCount += delta
		if p.LikeCount < 0 {
			p.LikeCount = 0
		}
	case KindComment:
		p.CommentCount += delta
		if p.CommentCount < 0 {
			p.CommentCount = 0
		}
	}
}

// HandleEvent is the supervisor's entry point for the likes and
// comments tables.
func (e *Engine) HandleEvent(_ context.Context, ev realtime.Event) error {
	var record struct {
		PostID string `json:"post_id"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(ev.Record, &record); err != nil {
		return fmt.Errorf("decode %s record: %w", ev.Table, err)
	}
	if record.PostID == "" {
		return fmt.Errorf("%s record without post_id", ev.Table)
	}

	var kind CountKind
	switch ev.Table {
	case "likes":
		kind = KindLike
	case "comments":
		kind = KindComment
	default:
		return fmt.Errorf("unexpected table %q", ev.Table)
	}

	switch ev.Operation {
	case realtime.OpInsert:
		e.ApplyCountDelta(record.PostID, record.UserID, kind, 1)
	case realtime.OpDelete:
		e.ApplyCountDelta(record.PostID, record.UserID, kind, -1)
	default:
		// Updates to likes/comments don't move counters.
	}
	return nil
}

// Post returns a copy of one post from the snapshot.
func (e *Engine) Post(postID string) (types.Post, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.posts[postID]; ok {
		return *p, true
	}
	return types.Post{}, false
}

// Snapshot returns the current feed in display order.
func (e *Engine) Snapshot() []types.Post {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() []types.Post {
	out := make([]types.Post, 0, len(e.order))
	for _, id := range e.order {
		if p, ok := e.posts[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// Reset discards all derived state. Called on identity change.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.posts = make(map[string]*types.Post)
	e.order = nil
	e.pending = make(map[echoKey]int)
}

func (e *Engine) consumePendingLocked(key echoKey) {
	if n := e.pending[key]; n > 1 {
		e.pending[key] = n - 1
	} else {
		delete(e.pending, key)
	}
}
