package client

import (
	"sync"

	"github.com/udinmoInc/law/client/internal/types"
)

// session holds the identity the embedding application reported. The
// SDK never authenticates by itself; it only reacts to changes.
type session struct {
	mu       sync.Mutex
	identity *types.Identity
	onChange []func(old, new *types.Identity)
}

// current returns the signed-in identity, or nil.
func (s *session) current() *types.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// set swaps the identity and runs change hooks outside the lock. The
// hooks fire even when old and new identities share a user id; a
// re-login is still a boundary.
func (s *session) set(id *types.Identity) {
	s.mu.Lock()
	old := s.identity
	s.identity = id
	hooks := make([]func(old, new *types.Identity), len(s.onChange))
	copy(hooks, s.onChange)
	s.mu.Unlock()

	for _, h := range hooks {
		h(old, id)
	}
}

// subscribe registers a hook to run on every identity change.
func (s *session) subscribe(h func(old, new *types.Identity)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, h)
}
