// Package state holds the wallet session shared by every part of the client.
package state

import (
	"sync"

	"candy-drop/pkg/models"
)

// ActionType names a wallet session transition
type ActionType string

const (
	SilentConnectPending        ActionType = "solanaWeb3/silentConnect/pending"
	SilentConnectRejected       ActionType = "solanaWeb3/silentConnect/rejected"
	SilentConnectFulfilled      ActionType = "solanaWeb3/silentConnect/fulfilled"
	InteractiveConnectPending   ActionType = "solanaWeb3/interactiveConnect/pending"
	InteractiveConnectRejected  ActionType = "solanaWeb3/interactiveConnect/rejected"
	InteractiveConnectFulfilled ActionType = "solanaWeb3/interactiveConnect/fulfilled"
)

// Action is a transition request; Account is only read by fulfilled actions
type Action struct {
	Type    ActionType
	Account string
}

// Listener receives the session after every applied action
type Listener func(models.WalletSession)

// Store owns the wallet session
type Store struct {
	mu        sync.RWMutex
	session   models.WalletSession
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store with no wallet connected
func NewStore() *Store {
	return &Store{
		listeners: make(map[int]Listener),
	}
}

// Dispatch applies action and notifies listeners. Unknown actions leave the
// session untouched and report false.
func (s *Store) Dispatch(action Action) bool {
	s.mu.Lock()
	next, ok := reduce(s.session, action)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.session = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return true
}

func reduce(session models.WalletSession, action Action) (models.WalletSession, bool) {
	switch action.Type {
	case SilentConnectPending, InteractiveConnectPending:
		session.Connecting = true
	case SilentConnectRejected, InteractiveConnectRejected:
		session.Connecting = false
		session.Account = ""
	case SilentConnectFulfilled, InteractiveConnectFulfilled:
		session.Connecting = false
		session.Account = action.Account
	default:
		return session, false
	}
	return session, true
}

// Snapshot returns a copy of the current session
func (s *Store) Snapshot() models.WalletSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers l and returns a function that removes it
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) IsAuthorized() bool {
	return s.Snapshot().Connected()
}

func (s *Store) AuthorizedWallet() string {
	return s.Snapshot().Account
}

func (s *Store) IsConnecting() bool {
	return s.Snapshot().Connecting
}
