// Package session holds the client-side credential for the CRM API: an opaque
// bearer token and the advisory username that goes with it.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// Storage keys. Both are written and removed together.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// ErrNotFound is returned by a KV when a key is not stored.
var ErrNotFound = errors.New("session: key not found")

// Session is the stored token/username pair. An empty string means absent.
type Session struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"user,omitempty"`
}

// Authenticated reports whether a token is present. Username never counts.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// KV is the persistent key-value storage underneath a Store.
type KV interface {
	// Get returns ErrNotFound when the key is not stored
	Get(key string) (string, error)
	// Set writes all values in a single update
	Set(values map[string]string) error
	// Delete removes all keys in a single update, missing keys are ignored
	Delete(keys ...string) error
}

// Store is the session store. It is the only component that reads or writes
// the token and user keys.
type Store struct {
	kv KV

	mu        sync.Mutex
	nextID    int
	observers map[int]func(Session)
}

// NewStore creates a Store on top of kv.
func NewStore(kv KV) *Store {
	return &Store{
		kv:        kv,
		observers: make(map[int]func(Session)),
	}
}

// Save stores the token and username, replacing whatever was there.
func (s *Store) Save(token, username string) error {
	err := s.kv.Set(map[string]string{
		TokenKey: token,
		UserKey:  username,
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.Notify()
	return nil
}

// Clear removes the token and username. Clearing an empty store is a no-op
// that still succeeds.
func (s *Store) Clear() error {
	if err := s.kv.Delete(TokenKey, UserKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.Notify()
	return nil
}

// IsAuthenticated reports whether a token is currently stored.
func (s *Store) IsAuthenticated() bool {
	token, err := s.kv.Get(TokenKey)
	return err == nil && token != ""
}

// Current returns the stored pair. Unreadable values are reported as absent.
func (s *Store) Current() Session {
	var sess Session
	if token, err := s.kv.Get(TokenKey); err == nil {
		sess.Token = token
	}
	if user, err := s.kv.Get(UserKey); err == nil {
		sess.Username = user
	}
	return sess
}

// Subscribe registers fn to be called with the current session after every
// change. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Notify re-reads the session and delivers it to every subscriber. Save and
// Clear call it; a Watcher calls it when the storage changed underneath.
func (s *Store) Notify() {
	s.mu.Lock()
	fns := make([]func(Session), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	current := s.Current()
	for _, fn := range fns {
		fn(current)
	}
}
