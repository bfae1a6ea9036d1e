package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"netclub/internal/apperr"
	"netclub/internal/models"
	"netclub/internal/password"
)

// ErrInvalidCredentials represents login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// UserStore defines the staff account storage contract used by the
// auth and user services.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

// AuthService contains registration/login logic for staff accounts.
type AuthService struct {
	users     UserStore
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(users UserStore, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Register creates a new staff user. Any role other than admin becomes
// staff.
func (s *AuthService) Register(ctx context.Context, username, plaintext, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	if plaintext == "" {
		return nil, apperr.Validation("password is required")
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

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and produces a JWT.
func (s *AuthService) Login(ctx context.Context, username, plaintext string) (string, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || plaintext == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.NotFound(apperr.CodeUserNotFound, "")) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, plaintext); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// ChangePassword swaps a user's password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if strings.TrimSpace(username) == "" || oldPassword == "" || newPassword == "" {
		return apperr.Validation("username, old password and new password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.NotFound(apperr.CodeUserNotFound, "")) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int64("user_id", user.ID))
	return nil
}
