package session

import (
	"sync/atomic"

	"github.com/MrEthical07/goAuthClient/authflow"
)

type snapshot struct {
	client  *Client
	version uint64
}

var emptyClient = &Client{}

// StateStore holds the current Client snapshot. Reads are lock-free; every
// update is a full replace through a single atomic pointer swap.
//
// Values returned by Current are shared and must be treated as read-only.
type StateStore struct {
	current atomic.Pointer[snapshot]
}

// NewStateStore returns a store holding an empty client at version 0.
func NewStateStore() *StateStore {
	s := &StateStore{}
	s.current.Store(&snapshot{client: emptyClient})
	return s
}

func (s *StateStore) load() *snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return &snapshot{client: emptyClient}
}

// Current returns the latest snapshot. It never returns nil.
func (s *StateStore) Current() *Client {
	return s.load().client
}

// Version increases by one on every Replace or Clear.
func (s *StateStore) Version() uint64 {
	return s.load().version
}

// Replace publishes next as the current client and returns the previous one.
// Concurrent replaces are last-writer-wins.
func (s *StateStore) Replace(next *Client) *Client {
	if next == nil {
		next = emptyClient
	}
	for {
		prev := s.current.Load()
		var version uint64
		if prev != nil {
			version = prev.version
		}
		if s.current.CompareAndSwap(prev, &snapshot{client: next, version: version + 1}) {
			if prev == nil {
				return emptyClient
			}
			return prev.client
		}
	}
}

// Clear resets the store to an empty client.
func (s *StateStore) Clear() *Client {
	return s.Replace(nil)
}

// ActiveSession returns the active session of the current snapshot.
func (s *StateStore) ActiveSession() (*Session, bool) {
	return s.Current().ActiveSession()
}

// User returns the user of the active session.
func (s *StateStore) User() *User {
	sess, ok := s.ActiveSession()
	if !ok {
		return nil
	}
	return sess.User
}

func (s *StateStore) SignIn() *authflow.SignIn {
	return s.Current().SignIn
}

func (s *StateStore) SignUp() *authflow.SignUp {
	return s.Current().SignUp
}
