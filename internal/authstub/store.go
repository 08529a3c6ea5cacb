// Package authstub is an in-memory stand-in for the storefront auth backend.
// It serves the same login/register contract so the storefront can be run and
// tested without the real API.
package authstub

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("authstub: email already registered")
	// ErrInvalidCredentials is returned when the email/password pair does not match.
	ErrInvalidCredentials = errors.New("authstub: invalid credentials")
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Store keeps users in memory keyed by lowercased email.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
	cost  int
	now   func() time.Time
}

// NewStore returns an empty store. cost is the bcrypt cost; zero uses bcrypt.DefaultCost.
func NewStore(cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		users: make(map[string]User),
		cost:  cost,
		now:   time.Now,
	}
}

// Create registers a new user.
func (s *Store) Create(email, firstName, lastName, password string) (User, error) {
	key := emailKey(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[key]; exists {
		return User{}, ErrEmailTaken
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(email),
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	s.users[key] = user
	return user, nil
}

// Authenticate returns the user when password matches.
func (s *Store) Authenticate(email, password string) (User, error) {
	s.mu.RLock()
	user, ok := s.users[emailKey(email)]
	s.mu.RUnlock()
	if !ok {
		// Spend comparable time on unknown accounts.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Exists reports whether the email is registered.
func (s *Store) Exists(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[emailKey(email)]
	return ok
}

// Get returns the user by ID.
func (s *Store) Get(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("authstub-dummy-password"), bcrypt.MinCost)
