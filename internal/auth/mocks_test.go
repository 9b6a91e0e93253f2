package auth

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type MockAuthenticator struct {
	Session    domain.Session
	LoginErr   error
	Token      string
	RefreshErr error

	LoginCalls   int
	RefreshCalls int
	LastRefresh  string
}

func (m *MockAuthenticator) Login(context.Context, string, string) (domain.Session, error) {
	m.LoginCalls++
	return m.Session, m.LoginErr
}

func (m *MockAuthenticator) RefreshToken(_ context.Context, refreshToken string) (string, error) {
	m.RefreshCalls++
	m.LastRefresh = refreshToken
	return m.Token, m.RefreshErr
}

// MemoryJar is a CookieJar backed by a map.
type MemoryJar map[string]string

func (j MemoryJar) Get(name string) (string, bool) {
	v, ok := j[name]
	return v, ok && v != ""
}

func (j MemoryJar) Set(name, value string) { j[name] = value }

func (j MemoryJar) Clear(name string) { delete(j, name) }
