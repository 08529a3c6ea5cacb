package auth

import (
	"context"
	"strings"
)

// TokenStore persists the access token for one UI session.
type TokenStore interface {
	AccessToken() string
	SetAccessToken(token string)
	ClearAccessToken()
}

// Backend is the transport used by Service. *Client implements it.
type Backend interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Register(ctx context.Context, in RegisterRequest) (RegisterResult, error)
}

// Service couples the backend calls with the per-session token store.
type Service struct {
	backend Backend
}

// NewService wraps backend. A nil backend makes every call fail with ErrNotConfigured.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Login authenticates against the backend and, on success, stores the issued token in store.
// The typed response is returned so callers can chain on it.
func (s *Service) Login(ctx context.Context, store TokenStore, email, password string) (LoginResult, error) {
	if s == nil || s.backend == nil {
		return LoginResult{}, ErrNotConfigured
	}
	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(result.AccessToken) == "" {
		return LoginResult{}, ErrMissingToken
	}
	if store != nil {
		store.SetAccessToken(result.AccessToken)
	}
	return result, nil
}

// Register forwards the payload; the response has no side effects.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (RegisterResult, error) {
	if s == nil || s.backend == nil {
		return RegisterResult{}, ErrNotConfigured
	}
	return s.backend.Register(ctx, in)
}

// Logout forgets the stored token.
func (s *Service) Logout(store TokenStore) {
	if store != nil {
		store.ClearAccessToken()
	}
}

// IsAuthenticated reports whether store currently holds a token.
func IsAuthenticated(store TokenStore) bool {
	return store != nil && strings.TrimSpace(store.AccessToken()) != ""
}

// IsGuest is the negation of IsAuthenticated.
func IsGuest(store TokenStore) bool {
	return !IsAuthenticated(store)
}
