package service

import (
	"context"
	"errors"
	"fintrack/internal/common"
	"fintrack/internal/common/security"
	"fintrack/internal/domain/model"
	"fintrack/internal/domain/repository"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo       repository.UserRepository
	passwordMinLen int
	now            func() time.Time
}

func NewUserService(userRepo repository.UserRepository, passwordMinLen int) *UserService {
	return &UserService{userRepo: userRepo, passwordMinLen: passwordMinLen, now: time.Now}
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// Create adds a user; the role defaults to "user".
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*model.Profile, error) {
	user, err := s.newUser(req, model.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// Bootstrap creates the first account while no users exist; the role
// defaults to "admin".
func (s *UserService) Bootstrap(ctx context.Context, req CreateUserRequest) (*model.Profile, error) {
	user, err := s.newUser(req, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateFirst(ctx, user); err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// Me returns the profile of the authenticated user.
func (s *UserService) Me(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *UserService) newUser(req CreateUserRequest, defaultRole string) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, common.InvalidField("username", "is required")
	}
	if err := checkPasswordLength(s.passwordMinLen, "password", req.Password); err != nil {
		return nil, err
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = defaultRole
	}
	return s.buildUser(username, req.Password, role)
}

func (s *UserService) buildUser(username, password, role string) (*model.User, error) {
	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	return &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         role,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DemoUsers are the accounts seeded in development.
var DemoUsers = []CreateUserRequest{
	{Username: "admin", Password: "admin123", Role: model.RoleAdmin},
	{Username: "user1", Password: "1111", Role: model.RoleUser},
	{Username: "user2", Password: "2222", Role: model.RoleUser},
}

// SeedDemoUsers creates every demo account that does not exist yet.
func (s *UserService) SeedDemoUsers(ctx context.Context, log *zap.Logger) error {
	for _, seed := range DemoUsers {
		_, err := s.userRepo.FindByUsername(ctx, seed.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("check seed user %s: %w", seed.Username, err)
		}

		user, err := s.buildUser(seed.Username, seed.Password, seed.Role)
		if err != nil {
			return fmt.Errorf("prepare seed user %s: %w", seed.Username, err)
		}
		if err := s.userRepo.Create(ctx, user); err != nil && !errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("insert seed user %s: %w", seed.Username, err)
		}
		log.Info("seeded demo user", zap.String("username", seed.Username), zap.String("role", seed.Role))
	}
	return nil
}
