// Package identity provides staff authentication: password checks, session
// tokens and the seed of the initial administrator.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
	"github.com/bissquit/quotedesk/internal/pkg/metrics"
)

// Authenticator issues and verifies session tokens.
type Authenticator interface {
	Issue(claims domain.Claims) (string, error)
	Verify(token string) (*domain.Claims, error)
}

// Service implements identity business logic.
type Service struct {
	repo          Repository
	auth          Authenticator
	checkPassword func(plain, digest string) bool
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator) *Service {
	return &Service{
		repo:          repo,
		auth:          auth,
		checkPassword: CheckPassword,
	}
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	logger := ctxlog.FromContext(ctx)

	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.checkPassword(input.Password, unknownUserDigest())
			metrics.LoginAttempts.WithLabelValues("unknown_user").Inc()
			logger.Info("login rejected", "reason", "unknown user")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if !s.checkPassword(input.Password, user.Password) {
		metrics.LoginAttempts.WithLabelValues("wrong_password").Inc()
		logger.Info("login rejected", "reason", "wrong password", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.Issue(domain.ClaimsFor(user))
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return user, token, nil
}

// VerifyToken validates a session token and returns its claims.
func (s *Service) VerifyToken(_ context.Context, token string) (*domain.Claims, error) {
	return s.auth.Verify(token)
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// SeedInput describes the bootstrap account.
type SeedInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// EnsureUser creates the account unless one with the same e-mail exists.
// An existing account is returned untouched. The bool reports creation.
func (s *Service) EnsureUser(ctx context.Context, input SeedInput) (*domain.User, bool, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, false, errors.New("email and password are required")
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	digest, err := HashPassword(input.Password)
	if err != nil {
		return nil, false, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		Email:    email,
		Password: digest,
		Name:     input.Name,
		Role:     role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	return user, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
