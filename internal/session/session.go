// Package session holds the signed-in user and the bearer token. A Session
// is created once by the application root and handed to every screen.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"student-connect/internal/models"
	"student-connect/internal/storage"
	"student-connect/internal/utils"
)

var ErrEmptyToken = errors.New("empty token")

// ProfileFetcher loads the user a stored token belongs to.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*models.User, error)
}

type Session struct {
	mu     sync.RWMutex
	tokens storage.TokenStore
	users  ProfileFetcher
	token  string
	user   *models.User
}

func New(tokens storage.TokenStore, users ProfileFetcher) *Session {
	return &Session{tokens: tokens, users: users}
}

// Init restores a persisted session. With no stored token the session
// stays anonymous. If the profile cannot be fetched (expired token, network)
// the session is cleared and the error returned.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.tokens.LoadToken()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return nil
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.loadProfile(ctx, token)
}

// Login persists token before anything uses it, then fetches the profile.
func (s *Session) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.tokens.SaveToken(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.mu.Unlock()
	return s.loadProfile(ctx, token)
}

func (s *Session) loadProfile(ctx context.Context, token string) error {
	user, err := s.users.Profile(ctx)
	if err != nil {
		err = fmt.Errorf("load profile: %w", err)
		if s.Token() == token {
			if lerr := s.Logout(); lerr != nil {
				return errors.Join(err, lerr)
			}
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A logout or another login won the race; keep its state.
	if s.token != token {
		return nil
	}
	s.user = user
	return nil
}

// Refresh replaces the local user with the backend's copy, discarding any
// local projection made through UpdateUser.
func (s *Session) Refresh(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	return s.loadProfile(ctx, token)
}

// Logout clears the persisted token and the in-memory state. The memory is
// cleared even when the durable store fails.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	if err := s.tokens.ClearToken(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// UpdateUser merges patch into the local user without a round trip. This
// is a best-effort projection; the next profile fetch overwrites it.
// It reports false when nobody is signed in.
func (s *Session) UpdateUser(patch models.UserPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	u := *s.user
	patch.Apply(&u)
	s.user = &u
	return true
}

// User returns a copy of the signed-in user.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated is true only once both the token and the profile are in
// place.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// TokenExpiry reports the exp claim of the current token when it is a JWT.
func (s *Session) TokenExpiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	return utils.PeekExpiry(token)
}
