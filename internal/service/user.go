package service

import (
	"context"
	"fmt"

	"github.com/dverhoef/taskhive/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// UserUpdate carries the updatable profile fields. Nil means "leave as is".
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int64
}

// UserService handles profile reads, updates, and account deletion.
type UserService struct {
	users      domain.UserRepository
	bcryptCost int
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// GetByID retrieves a user by their ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies a partial profile update. Every field is validated before
// anything is written, so an update with one bad field applies nothing.
// A password change is re-hashed before storage.
func (s *UserService) Update(ctx context.Context, user *domain.User, upd UserUpdate) error {
	if upd.Name != nil && *upd.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	var email string
	if upd.Email != nil {
		normalized, err := normalizeEmail(*upd.Email)
		if err != nil {
			return err
		}
		email = normalized
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return err
		}
	}
	if upd.Age != nil && *upd.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", domain.ErrInvalidInput)
	}

	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Email != nil {
		user.Email = email
	}
	if upd.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if upd.Age != nil {
		user.Age = *upd.Age
	}

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes the account. The store cascades the deletion to session
// tokens and owned tasks, so no orphaned task survives the account.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
