package polls

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/livepoll/backend/internal/models"
)

// memStore is an in-process Store guarded by a single mutex.
type memStore struct {
	mu        sync.Mutex
	polls     map[uuid.UUID]*models.Poll
	clock     time.Time
	failWrite error
	writes    int
}

func newMemStore() *memStore {
	return &memStore{polls: make(map[uuid.UUID]*models.Poll), clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *memStore) Create(_ context.Context, p *models.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	s.clock = s.clock.Add(time.Second)
	p.ID = uuid.New()
	p.CreatedAt = s.clock
	p.Counts = make([]int, len(p.Options))
	p.TotalVotes = 0
	s.polls[p.ID] = p.Clone()
	s.writes++
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *memStore) List(_ context.Context) ([]models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]models.Poll, 0, len(s.polls))
	for _, p := range s.polls {
		list = append(list, *p.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *memStore) IncrementVote(_ context.Context, id uuid.UUID, optionIndex int) (*models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	p, ok := s.polls[id]
	if !ok || !p.HasOption(optionIndex) {
		return nil, ErrNotFound
	}
	p.Counts[optionIndex]++
	p.TotalVotes++
	s.writes++
	return p.Clone(), nil
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// published is one recorded broadcast.
type published struct {
	event string
	poll  models.Poll
}

// recordingPublisher captures broadcasts for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(event string, payload interface{}) {
	p, ok := payload.(*models.Poll)
	if !ok {
		panic("unexpected payload type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{event: event, poll: *p.Clone()})
}

func (r *recordingPublisher) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

var errStoreDown = errors.New("connection refused")
