package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Contacts(ctx context.Context, excludeID string) ([]models.Contact, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// CreateUserRequest represents an account created from the admin CLI.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,max=64"`
	FullName string          `json:"full_name" validate:"required,max=120"`
	Email    string          `json:"email" validate:"omitempty,email,max=150"`
	Role     models.UserRole `json:"role" validate:"required,oneof=admin teacher cashier"`
	Password string          `json:"password" validate:"required,min=8"`
}

// UserService handles account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.Validate
	}
	return &UserService{repo: repo, validator: validate, logger: logger, cost: bcrypt.DefaultCost}
}

// Create registers a new active account.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, internalErr(err, "failed to check username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, internalErr(err, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        optional(req.Email),
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeErr(err, "username already exists", "", "create user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// SetPassword replaces the password of username.
func (s *UserService) SetPassword(ctx context.Context, username, password string) error {
	if len(password) < 8 {
		return invalid("password must be at least 8 characters in length")
	}
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return notFoundOr(err, "user not found", "load user")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return internalErr(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return writeErr(err, "", "user not found", "update password")
	}
	return nil
}

// Contacts lists the users userID can send messages to.
func (s *UserService) Contacts(ctx context.Context, userID string) ([]models.Contact, error) {
	contacts, err := s.repo.Contacts(ctx, userID)
	if err != nil {
		return nil, internalErr(err, "failed to list contacts")
	}
	return contacts, nil
}
