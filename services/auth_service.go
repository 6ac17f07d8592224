package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/common/logger"
	"github.com/khoilion/store-be/models"
	"github.com/khoilion/store-be/repository"
)

const invalidCredentials = "Invalid username or password"

type TokenIssuer interface {
	GenerateAccessToken(userID, role string) (string, error)
}

type LoginResult struct {
	User models.User `json:"user"`
	JWT  string      `json:"jwt"`
}

type AuthService struct {
	users  repository.UserRepo
	tokens TokenIssuer
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepo, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.Validation("Username is required")
	}
	if len(password) < 6 {
		return nil, apperrors.Validation("Password must be at least 6 characters")
	}

	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil, apperrors.Conflict("User already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, internal(ctx, s.logger, "Failed to look up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to hash password", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  string(hash),
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("User already exists")
		}
		return nil, internal(ctx, s.logger, "Failed to create user", err)
	}

	logger.FromContext(ctx, s.logger).Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login never reveals whether the username exists.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, internal(ctx, s.logger, "Failed to look up user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to issue token", err)
	}
	return &LoginResult{User: *user, JWT: token}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, internal(ctx, s.logger, "Failed to load user", err)
	}
	return user, nil
}
