package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/livepoll/backend/internal/models"
	"github.com/livepoll/backend/pkg/apperror"
	"github.com/livepoll/backend/pkg/utils"
)

// Redirect hints returned by Login. Callers may ignore them.
const (
	RedirectAdmin = "/admin"
	RedirectUser  = "/polls"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Store is the account persistence the service depends on. *Repository implements it.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash string, role models.Role) (*models.User, error)
}

// LoginResult is what a successful credential check yields.
type LoginResult struct {
	Role     models.Role
	Redirect string
}

// Service registers accounts and checks credentials.
type Service struct {
	store      Store
	bcryptCost int
	logger     *zap.Logger
}

// NewService creates an account service hashing at bcryptCost.
func NewService(store Store, bcryptCost int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, bcryptCost: bcryptCost, logger: logger}
}

// Register stores a new account with role user.
func (s *Service) Register(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return apperror.Validation("email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return apperror.Validation("invalid email address")
	}
	if len(password) > MaxPasswordBytes {
		return apperror.Validation("password must be at most 72 bytes")
	}

	_, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		return apperror.Conflict("email already registered")
	}
	if !errors.Is(err, ErrNotFound) {
		return apperror.Internal("lookup user", err)
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperror.Internal("hash password", err)
	}
	u, err := s.store.Create(ctx, email, hash, models.RoleUser)
	if errors.Is(err, ErrEmailTaken) {
		return apperror.Conflict("email already registered")
	}
	if err != nil {
		return apperror.Internal("create user", err)
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return nil
}

// Login checks credentials and returns the account's role with a redirect hint.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("lookup user", err)
	}
	if !utils.CheckPassword(password, u.Password) {
		return nil, apperror.Auth("invalid password")
	}

	redirect := RedirectUser
	if u.Role == models.RoleAdmin {
		redirect = RedirectAdmin
	}
	return &LoginResult{Role: u.Role, Redirect: redirect}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
