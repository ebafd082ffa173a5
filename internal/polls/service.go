package polls

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/livepoll/backend/internal/models"
	"github.com/livepoll/backend/pkg/apperror"
)

// Broadcast event names.
const (
	EventPollCreated = "pollCreated"
	EventVoteUpdate  = "voteUpdate"
)

// Store is the poll persistence the service depends on. *Repository implements it.
type Store interface {
	Create(ctx context.Context, p *models.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	List(ctx context.Context) ([]models.Poll, error)
	IncrementVote(ctx context.Context, id uuid.UUID, optionIndex int) (*models.Poll, error)
}

// Publisher fans an event out to connected subscribers. *realtime.Hub implements it.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Service creates polls, lists them and applies votes.
type Service struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a poll service.
func NewService(store Store, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, publisher: publisher, logger: logger}
}

// CreatePoll validates and stores a poll, then publishes pollCreated with the stored record.
func (s *Service) CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperror.Validation("question is required")
	}
	if len(options) < 2 {
		return nil, apperror.Validation("at least two options are required")
	}
	cleaned := make([]string, len(options))
	for i, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, apperror.Validation("options must not be empty")
		}
		cleaned[i] = o
	}

	p := models.NewPoll(question, cleaned)
	if err := s.store.Create(ctx, p); err != nil {
		return nil, apperror.Internal("create poll", err)
	}

	s.logger.Info("poll created", zap.String("poll_id", p.ID.String()), zap.Int("options", len(p.Options)))
	s.publish(EventPollCreated, p)
	return p, nil
}

// ListPolls returns all polls, newest first.
func (s *Service) ListPolls(ctx context.Context) ([]models.Poll, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, apperror.Internal("list polls", err)
	}
	if list == nil {
		list = []models.Poll{}
	}
	return list, nil
}

// GetPoll returns one poll. Malformed ids are reported as not found.
func (s *Service) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	id, err := uuid.Parse(pollID)
	if err != nil {
		return nil, apperror.NotFound("poll not found")
	}
	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NotFound("poll not found")
	}
	if err != nil {
		return nil, apperror.Internal("get poll", err)
	}
	return p, nil
}

// CastVote applies one vote to optionIndex and publishes voteUpdate with the updated record.
// An unknown poll is a not-found error; an index outside the options is a validation
// error and leaves the poll untouched.
func (s *Service) CastVote(ctx context.Context, pollID string, optionIndex int) (*models.Poll, error) {
	p, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !p.HasOption(optionIndex) {
		return nil, apperror.Validation("invalid option index")
	}

	// polls are never deleted and options never change, so ErrNotFound here is a store fault
	updated, err := s.store.IncrementVote(ctx, p.ID, optionIndex)
	if err != nil {
		return nil, apperror.Internal("increment vote", err)
	}

	s.logger.Debug("vote cast",
		zap.String("poll_id", updated.ID.String()),
		zap.Int("option_index", optionIndex),
		zap.Int("total_votes", updated.TotalVotes),
	)
	s.publish(EventVoteUpdate, updated)
	return updated, nil
}

// publish hands subscribers their own copy so the caller's record is never shared.
func (s *Service) publish(event string, p *models.Poll) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event, p.Clone())
}
