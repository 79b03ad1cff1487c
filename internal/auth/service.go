package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// DefaultRoleName is assigned at self-registration.
const DefaultRoleName = "User"

// ErrEmailTaken indicates a registration against an existing email.
var ErrEmailTaken = errors.New("auth: email already registered")

// Service wraps authentication business rules.
type Service struct {
	repo       Repository
	limiter    *LoginLimiter
	bcryptCost int
}

// NewService constructs a Service. cost is clamped to the supported range.
func NewService(repo Repository, limiter *LoginLimiter, cost int) *Service {
	return &Service{repo: repo, limiter: limiter, bcryptCost: ClampBcryptCost(cost)}
}

// Authenticate validates email/password credentials, honouring the
// per-email lockout. Unknown users, wrong passwords and inactive accounts
// all surface as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	locked, err := s.limiter.IsLocked(ctx, email)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, shared.ErrAccountLocked
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = s.limiter.RecordFailure(ctx, email)
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status != StatusActive {
		_ = s.limiter.RecordFailure(ctx, email)
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if recErr := s.limiter.RecordFailure(ctx, email); recErr != nil {
			return nil, recErr
		}
		return nil, shared.ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates an account with the default role after enforcing the
// password policy.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || fullName == "" {
		return nil, errors.New("auth: email and full name are required")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	roleID, err := s.repo.RoleIDByName(ctx, DefaultRoleName)
	if err != nil {
		return nil, fmt.Errorf("auth: default role lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	return s.repo.CreateUser(ctx, email, string(hash), fullName, roleID)
}
