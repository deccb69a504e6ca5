// Package credentials holds the bearer token or API key the client
// authenticates with, plus the display identity of the logged-in user.
//
// A Store is read on every request and never cached by the client, so a
// change made through another Store handle (another process sharing the same
// file, for example) is observed on the next call.
package credentials

import (
	"sync"
)

// Credentials is the persisted authentication state.
//
// At most one of Token and APIKey is used per request; Token wins when both
// are set.
type Credentials struct {
	Token    string `json:"token,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Empty reports whether no authentication material is present.
func (c Credentials) Empty() bool {
	return c.Token == "" && c.APIKey == ""
}

// Store persists Credentials.
//
// Get returns the zero Credentials and a nil error when nothing is stored.
// Clear removes the token, the API key and both identity fields together.
type Store interface {
	Get() (Credentials, error)
	Set(Credentials) error
	Clear() error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewMemoryStore returns a MemoryStore seeded with creds.
func NewMemoryStore(creds Credentials) *MemoryStore {
	return &MemoryStore{creds: creds}
}

// Get returns the stored credentials.
func (s *MemoryStore) Get() (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

// Set replaces the stored credentials.
func (s *MemoryStore) Set(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

// Clear removes all stored credentials.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}
