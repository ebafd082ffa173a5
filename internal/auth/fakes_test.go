package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/livepoll/backend/internal/models"
)

// memStore keys users by email exactly as given; the service lowercases first.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	lookups int
	err     error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*models.User)}
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, email, passwordHash string, role models.Role) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if _, ok := s.users[email]; ok {
		return nil, ErrEmailTaken
	}
	u := &models.User{ID: uuid.New(), Email: email, Password: passwordHash, Role: role, CreatedAt: time.Now()}
	s.users[email] = u
	cp := *u
	return &cp, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) setRole(email string, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email].Role = role
}
