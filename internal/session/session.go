// Package session holds the authenticated user and bearer token for the
// lifetime of the process and persists them between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theirongolddev/sitebudget/internal/model"
)

// ErrNoToken is returned when a login or registration yields no access token.
var ErrNoToken = errors.New("session: server returned no access token")

// State is the persisted part of a session.
type State struct {
	Token string
	User  *model.User
}

// Store persists session state.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// Authenticator performs the login and registration calls.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.AuthResponse, error)
	Register(ctx context.Context, email, password, fullName string) (model.AuthResponse, error)
}

// Session is the current credential and user. It satisfies api.Credentials.
type Session struct {
	mu    sync.RWMutex
	store Store
	token string
	user  *model.User
	now   func() time.Time
	log   *slog.Logger
}

// New creates an empty session backed by store. Call Restore to load saved state.
func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store, now: time.Now, log: slog.Default()}
}

// SetLogger replaces the logger used for storage failures.
func (s *Session) SetLogger(l *slog.Logger) {
	if l != nil {
		s.log = l
	}
}

// Restore loads persisted state. A missing file leaves the session empty.
func (s *Session) Restore() error {
	st, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	s.mu.Lock()
	s.token, s.user = st.Token, st.User
	s.mu.Unlock()
	return nil
}

// Token returns the bearer token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user, or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a token is present and, if it is a JWT
// carrying an exp claim, not yet expired.
func (s *Session) IsAuthenticated() bool {
	tok := s.Token()
	if tok == "" {
		return false
	}
	exp, ok := ExpiresAt(tok)
	return !ok || s.now().Before(exp)
}

// Clear drops the credential and user from memory and storage. A storage
// failure is logged; the in-memory session is cleared regardless.
func (s *Session) Clear() {
	if err := s.clear(); err != nil {
		s.log.Warn("clearing saved session", "err", err)
	}
}

func (s *Session) clear() error {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("removing saved session: %w", err)
	}
	return nil
}

// Login authenticates and stores the resulting credential.
func (s *Session) Login(ctx context.Context, auth Authenticator, email, password string) (*model.User, error) {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrNoToken
	}
	if err := s.set(resp); err != nil {
		return nil, err
	}
	return s.User(), nil
}

// Register creates an account. When the registration response carries no
// token, it logs in with the same credentials.
func (s *Session) Register(ctx context.Context, auth Authenticator, email, password, fullName string) (*model.User, error) {
	resp, err := auth.Register(ctx, email, password, fullName)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return s.Login(ctx, auth, email, password)
	}
	if err := s.set(resp); err != nil {
		return nil, err
	}
	return s.User(), nil
}

// Logout clears the session and reports whether the saved copy was removed.
func (s *Session) Logout() error {
	return s.clear()
}

func (s *Session) set(resp model.AuthResponse) error {
	s.mu.Lock()
	s.token, s.user = resp.AccessToken, resp.User
	st := State{Token: s.token, User: s.user}
	s.mu.Unlock()
	if err := s.store.Save(st); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// ok is false when the token is not a JWT or carries no exp.
func ExpiresAt(token string) (exp time.Time, ok bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	nd, err := parsed.Claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}
