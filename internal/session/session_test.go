package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/model"
)

type fakeAuth struct {
	registerToken string
	logins        int
	err           error
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (model.AuthResponse, error) {
	f.logins++
	if f.err != nil {
		return model.AuthResponse{}, f.err
	}
	return model.AuthResponse{AccessToken: "login-token", User: &model.User{ID: "u1", Email: email}}, nil
}

func (f *fakeAuth) Register(_ context.Context, email, _, fullName string) (model.AuthResponse, error) {
	if f.registerToken == "" {
		return model.AuthResponse{}, nil
	}
	return model.AuthResponse{
		AccessToken: f.registerToken,
		User:        &model.User{ID: "u2", Email: email, UserMetadata: model.UserMetadata{FullName: fullName}},
	}, nil
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestLoginPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	s := New(NewFileStore(dir))

	u, err := s.Login(context.Background(), &fakeAuth{}, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Email != "ana@example.com" || !s.IsAuthenticated() {
		t.Fatalf("user = %+v authenticated = %v", u, s.IsAuthenticated())
	}

	info, err := os.Stat(NewFileStore(dir).Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}

	restored := New(NewFileStore(dir))
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Token() != "login-token" || restored.User().Email != "ana@example.com" {
		t.Fatalf("restored token=%q user=%+v", restored.Token(), restored.User())
	}
}

func TestLogoutClearsStorage(t *testing.T) {
	dir := t.TempDir()
	s := New(NewFileStore(dir))
	if _, err := s.Login(context.Background(), &fakeAuth{}, "a@b.co", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if s.IsAuthenticated() || s.User() != nil {
		t.Fatal("session still authenticated after logout")
	}
	if _, err := os.Stat(NewFileStore(dir).Path()); !os.IsNotExist(err) {
		t.Fatalf("session file still present: %v", err)
	}
}

func TestRegisterFallsBackToLogin(t *testing.T) {
	auth := &fakeAuth{}
	s := New(nil)
	if _, err := s.Register(context.Background(), auth, "new@example.com", "secret1", "New User"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if auth.logins != 1 {
		t.Fatalf("logins = %d, want 1", auth.logins)
	}
	if s.Token() != "login-token" {
		t.Fatalf("token = %q", s.Token())
	}
}

func TestRegisterWithTokenSkipsLogin(t *testing.T) {
	auth := &fakeAuth{registerToken: "reg-token"}
	s := New(nil)
	u, err := s.Register(context.Background(), auth, "new@example.com", "secret1", "New User")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if auth.logins != 0 || s.Token() != "reg-token" || u.DisplayName() != "New User" {
		t.Fatalf("logins=%d token=%q user=%+v", auth.logins, s.Token(), u)
	}
}

func TestLoginErrorLeavesSessionEmpty(t *testing.T) {
	s := New(nil)
	_, err := s.Login(context.Background(), &fakeAuth{err: &api.RequestError{StatusCode: 400, Message: "Invalid login credentials"}}, "a@b.co", "x")
	var re *api.RequestError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v", err)
	}
	if s.Token() != "" {
		t.Fatal("token set after failed login")
	}
}

func TestIsAuthenticated_JWTExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	_ = store.Save(State{Token: signed(t, now.Add(-time.Minute))})
	s := New(store)
	s.now = func() time.Time { return now }
	if err := s.Restore(); err != nil {
		t.Fatal(err)
	}
	if s.IsAuthenticated() {
		t.Fatal("expired JWT reported as authenticated")
	}

	_ = store.Save(State{Token: signed(t, now.Add(time.Hour))})
	_ = s.Restore()
	if !s.IsAuthenticated() {
		t.Fatal("valid JWT reported as unauthenticated")
	}

	_ = store.Save(State{Token: "opaque-token"})
	_ = s.Restore()
	if !s.IsAuthenticated() {
		t.Fatal("opaque token reported as unauthenticated")
	}
}

func TestSessionClearsOn401(t *testing.T) {
	s := New(nil)
	_, _ = s.Login(context.Background(), &fakeAuth{}, "a@b.co", "secret1")

	var creds api.Credentials = s
	creds.Clear()
	if s.Token() != "" {
		t.Fatal("token survived Clear")
	}
}

type brokenStore struct {
	MemoryStore
	clearErr error
}

func (b *brokenStore) Clear() error { return b.clearErr }

func TestClearLogsStoreFailure(t *testing.T) {
	store := &brokenStore{clearErr: errors.New("read-only file system")}
	s := New(store)
	var buf bytes.Buffer
	s.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	if _, err := s.Login(context.Background(), &fakeAuth{}, "a@b.co", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	s.Clear()
	if s.Token() != "" || s.User() != nil {
		t.Fatal("in-memory session survived a failed store clear")
	}
	if !strings.Contains(buf.String(), "clearing saved session") || !strings.Contains(buf.String(), "read-only file system") {
		t.Fatalf("store failure not logged: %q", buf.String())
	}
}

func TestLogoutReturnsStoreFailure(t *testing.T) {
	store := &brokenStore{clearErr: errors.New("permission denied")}
	s := New(store)
	if _, err := s.Login(context.Background(), &fakeAuth{}, "a@b.co", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	err := s.Logout()
	if !errors.Is(err, store.clearErr) {
		t.Fatalf("Logout err = %v, want %v", err, store.clearErr)
	}
	if s.IsAuthenticated() {
		t.Fatal("session still authenticated after logout")
	}
}
