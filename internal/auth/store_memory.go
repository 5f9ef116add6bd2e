package auth

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu         sync.RWMutex
	byUsername map[string]Admin
	cost       int
}

func NewMemStore() *MemStore {
	return &MemStore{byUsername: make(map[string]Admin), cost: bcrypt.DefaultCost}
}

// NewStore returns the credential store with one seeded administrator.
func NewStore(ctx context.Context, username, password, role string) (*MemStore, error) {
	s := NewMemStore()
	if err := s.Create(ctx, username, password, role); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemStore) Create(_ context.Context, username, password, role string) error {
	username = normalizeUsername(username)
	password = strings.TrimSpace(password)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return ErrUsernameExists
	}
	s.byUsername[username] = Admin{Username: username, Role: role, Hash: hash}
	return nil
}

func (s *MemStore) Verify(_ context.Context, username, password string) (Admin, error) {
	username = normalizeUsername(username)

	s.mu.RLock()
	a, ok := s.byUsername[username]
	s.mu.RUnlock()

	if !ok {
		return Admin{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.Hash, []byte(strings.TrimSpace(password))); err != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return a, nil
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
