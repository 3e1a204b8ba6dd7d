package session

import (
	"sync"

	"car-listing/internal/auth/domain/model"
)

// TokenStore persists the session token between client runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Session is the client's view of who is signed in. It is safe for
// concurrent use; the token is read at dispatch time by every request.
type Session struct {
	mu    sync.RWMutex
	user  *model.User
	token string
	store TokenStore
}

// New creates an empty session. store may be nil for a memory-only session.
func New(store TokenStore) *Session {
	return &Session{store: store}
}

// Restore loads a previously saved token. The user stays unknown until the
// caller confirms the token with the server.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Set replaces the session. A nil user keeps the current one, which is how
// token rotation on ordinary responses is applied.
func (s *Session) Set(user *model.User, token string) error {
	s.mu.Lock()
	if user != nil {
		u := *user
		s.user = &u
	}
	changed := s.token != token
	s.token = token
	s.mu.Unlock()

	if s.store != nil && changed {
		return s.store.Save(token)
	}
	return nil
}

// Token returns the current token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Clear signs the session out and forgets the persisted token.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if s.store != nil {
		return s.store.Clear()
	}
	return nil
}

// ClearIfToken signs out only while token is still the current one, so a
// rejection of an older token cannot undo a newer sign in. It reports
// whether the session was cleared.
func (s *Session) ClearIfToken(token string) (bool, error) {
	s.mu.Lock()
	if token == "" || s.token != token {
		s.mu.Unlock()
		return false, nil
	}
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if s.store != nil {
		return true, s.store.Clear()
	}
	return true, nil
}
