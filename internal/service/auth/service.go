package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
	userrepo "bizadmin/internal/repository/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const defaultPasswordMin = 8

// Service registers employees and issues bearer tokens for them.
type Service struct {
	repo        userrepo.Repository
	tokens      *tokenManager
	passwordMin int
	logger      *logger.Logger
}

// New creates a Service. An empty secret disables token issuing and
// verification; Enabled reports which mode is active.
func New(repo userrepo.Repository, secret string, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(secret, ttl),
		passwordMin: defaultPasswordMin,
		logger:      logger.OrNop(log).With("service", "auth"),
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Enabled reports whether bearer tokens are required.
func (s *Service) Enabled() bool {
	return s.tokens.enabled()
}

// Register creates an employee account with a bcrypt password hash.
// Admin accounts only come from the seed command.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !domain.ValidEmail(email) {
		return nil, domain.NewValidationError("email", "invalid email address")
	}
	if len(in.Password) < s.passwordMin {
		return nil, domain.NewValidationError("password", "must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, domain.User{Email: email, Name: name, Role: domain.RoleEmployee, PasswordHash: string(hashed)})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewDuplicateError(fmt.Sprintf("email %s already registered", email))
		}
		return nil, err
	}
	s.logger.Info("user registered", "id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks the credentials and returns the user with a signed token.
// The token is empty when signing is disabled.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !s.Enabled() {
		return u, "", nil
	}
	token, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Verify resolves a bearer token to the identity it was issued for.
func (s *Service) Verify(token string) (*domain.Identity, error) {
	id, ok := s.tokens.Validate(token)
	if !ok {
		return nil, ErrInvalidToken
	}
	return &id, nil
}
