package service

import (
	"context"
	"errors"
	"strings"

	"netclub/internal/apperr"
	"netclub/internal/models"
	"netclub/internal/password"
)

// UserService is the admin-facing staff account management.
type UserService struct {
	users  UserStore
	hasher password.Hasher
}

// NewUserService builds the service.
func NewUserService(users UserStore, hasher password.Hasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// List returns all staff users.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.Get(ctx, id)
}

// Create adds a staff user with a hashed password.
func (s *UserService) Create(ctx context.Context, username, plaintext, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || plaintext == "" {
		return nil, apperr.Validation("username and password are required")
	}
	if role != models.RoleAdmin {
		role = models.RoleStaff
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperr.Conflict(apperr.CodeUsernameTaken, "username already exists").
			With("username", username)
	} else if !errors.Is(err, apperr.NotFound(apperr.CodeUserNotFound, "")) {
		return nil, err
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserInput carries optional rewrites; a nil field keeps the stored
// value.
type UpdateUserInput struct {
	Username *string
	Password *string
	Role     *string
}

// Update merges the provided fields into the stored user.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (*models.User, error) {
	if input.Username == nil && input.Password == nil && input.Role == nil {
		return nil, apperr.Validation("nothing to update")
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		name := strings.TrimSpace(*input.Username)
		if name == "" {
			return nil, apperr.Validation("username must not be empty")
		}
		if name != user.Username {
			if _, err := s.users.GetByUsername(ctx, name); err == nil {
				return nil, apperr.Conflict(apperr.CodeUsernameTaken, "username already exists").
					With("username", name)
			} else if !errors.Is(err, apperr.NotFound(apperr.CodeUserNotFound, "")) {
				return nil, err
			}
			user.Username = name
		}
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, apperr.Validation("password must not be empty")
		}
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		if *input.Role != models.RoleAdmin {
			user.Role = models.RoleStaff
		} else {
			user.Role = models.RoleAdmin
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a staff user.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}
