package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists users.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User, passwordHash string) (User, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements administrative user management. The password
// policy and hashing cost match the self-registration flow.
type Service struct {
	repo       Repository
	audit      AuditPort
	bcryptCost int
}

// NewService builds Service. audit may be nil in tests.
func NewService(repo Repository, audit AuditPort, bcryptCost int) *Service {
	return &Service{repo: repo, audit: audit, bcryptCost: auth.ClampBcryptCost(bcryptCost)}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// CreateInput carries a new user.
type CreateInput struct {
	Email        string
	Password     string
	FullName     string
	Phone        string
	RoleID       int64
	DepartmentID int64
	Status       string
	ActorID      int64
}

func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.FullName == "" {
		return User{}, fmt.Errorf("%w: email and full name required", ErrValidation)
	}
	if input.RoleID == 0 {
		return User{}, fmt.Errorf("%w: role required", ErrValidation)
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return User{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	status := input.Status
	if status == "" {
		status = auth.StatusActive
	}
	if status != auth.StatusActive && status != auth.StatusInactive {
		return User{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		Status:       status,
		RoleID:       input.RoleID,
		DepartmentID: input.DepartmentID,
	}
	created, err := s.repo.Create(ctx, user, string(hash))
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, input.ActorID, "admin:user_created", created.Email)
	return created, nil
}

// UpdateInput carries mutable user fields. Email is immutable.
type UpdateInput struct {
	FullName     string
	Phone        string
	RoleID       int64
	DepartmentID int64
	Status       string
	ActorID      int64
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (User, error) {
	if input.FullName == "" {
		return User{}, fmt.Errorf("%w: full name required", ErrValidation)
	}
	if input.RoleID == 0 {
		return User{}, fmt.Errorf("%w: role required", ErrValidation)
	}
	if input.Status != auth.StatusActive && input.Status != auth.StatusInactive {
		return User{}, fmt.Errorf("%w: unknown status %q", ErrValidation, input.Status)
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.FullName = strings.TrimSpace(input.FullName)
	user.Phone = strings.TrimSpace(input.Phone)
	user.RoleID = input.RoleID
	user.DepartmentID = input.DepartmentID
	user.Status = input.Status
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, input.ActorID, "admin:user_updated", updated.Email)
	return updated, nil
}

// Delete hard-deletes the user.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "admin:user_deleted", user.Email)
	return nil
}

// ResetPassword applies the password policy and replaces the hash.
func (s *Service) ResetPassword(ctx context.Context, id int64, newPassword string, actorID int64) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "admin:user_password_reset", user.Email)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, email string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: email,
	})
}
