// Package auth manages the visitor's session with the storefront API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/api"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
)

const (
	// LoginPath is where visitors without a session are sent.
	LoginPath = "/signin"
	HomePath  = "/"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
)

// Authenticator is the part of the API the store talks to.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// Store holds one visitor's session for the lifetime of a request.
// State moves unauthenticated -> authenticated on login and back on logout
// or a failed refresh.
type Store struct {
	mu            sync.Mutex
	api           Authenticator
	jar           CookieJar
	log           *zap.Logger
	session       domain.Session
	authenticated bool
	loading       atomic.Bool
	now           func() time.Time
}

// NewStore rehydrates the session from jar when all four session cookies are present.
func NewStore(a Authenticator, jar CookieJar, log *zap.Logger) *Store {
	s := &Store{api: a, jar: jar, log: log, now: time.Now}

	var sess domain.Session
	sess.AccessToken, _ = jar.Get(CookieAccessToken)
	sess.RefreshToken, _ = jar.Get(CookieRefreshToken)
	sess.AccountID, _ = jar.Get(CookieAccountID)
	role, _ := jar.Get(CookieRole)
	sess.Role = domain.Role(role)

	if sess.Complete() {
		s.session = sess
		s.authenticated = true
	}
	return s
}

// Login exchanges credentials for a session. Failures are logged and reported
// as false; the store stays as it was.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.loading.Store(true)
	defer s.loading.Store(false)

	sess, err := s.api.Login(ctx, email, password)
	if err != nil {
		logger.WithContext(ctx, s.log).Info("login failed", zap.Error(err))
		return false
	}
	if !sess.Complete() {
		logger.WithContext(ctx, s.log).Warn("login reply missing session fields")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = sess
	s.authenticated = true
	s.jar.Set(CookieAccessToken, sess.AccessToken)
	s.jar.Set(CookieRefreshToken, sess.RefreshToken)
	s.jar.Set(CookieAccountID, sess.AccountID)
	s.jar.Set(CookieRole, string(sess.Role))
	return true
}

// Logout drops the session and its cookies and returns the login destination.
func (s *Store) Logout() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	return LoginPath
}

// RefreshAccessToken exchanges the refresh token for a new access token.
// Without a refresh token, or when the exchange fails, the session is cleared
// and ok is false.
func (s *Store) RefreshAccessToken(ctx context.Context) (string, bool) {
	s.mu.Lock()
	refreshToken := s.session.RefreshToken
	if refreshToken == "" {
		refreshToken, _ = s.jar.Get(CookieRefreshToken)
	}
	if refreshToken == "" {
		s.clearLocked()
		s.mu.Unlock()
		return "", false
	}
	s.mu.Unlock()

	s.loading.Store(true)
	defer s.loading.Store(false)

	token, err := s.api.RefreshToken(ctx, refreshToken)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		logger.WithContext(ctx, s.log).Info("token refresh failed, clearing session", zap.Error(err))
		s.clearLocked()
		return "", false
	}

	s.session.AccessToken = token
	s.jar.Set(CookieAccessToken, token)
	return token, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// IsLoading is true while a login or refresh call is in flight.
func (s *Store) IsLoading() bool {
	return s.loading.Load()
}

// Session returns the current session and whether it is complete.
func (s *Store) Session() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.authenticated && s.session.Complete()
}

// WithSession calls fn with the current session. An access token whose exp
// has passed is refreshed first; if fn still fails with an authentication
// error the token is refreshed once and fn retried once.
func (s *Store) WithSession(ctx context.Context, fn func(context.Context, domain.Session) error) error {
	sess, ok := s.Session()
	if !ok {
		return ErrNoSession
	}

	if tokenExpired(sess.AccessToken, s.now()) {
		if _, ok := s.RefreshAccessToken(ctx); !ok {
			return ErrSessionExpired
		}
		sess, _ = s.Session()
	}

	err := fn(ctx, sess)
	if !errors.Is(err, api.ErrUnauthenticated) {
		return err
	}

	if _, ok := s.RefreshAccessToken(ctx); !ok {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	sess, _ = s.Session()
	return fn(ctx, sess)
}

func (s *Store) clearLocked() {
	s.session = domain.Session{}
	s.authenticated = false
	for _, name := range sessionCookies {
		s.jar.Clear(name)
	}
}
