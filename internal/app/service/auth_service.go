package service

import (
	"context"
	"errors"
	"fintrack/internal/app/notify"
	"fintrack/internal/common"
	"fintrack/internal/common/security"
	"fintrack/internal/domain/model"
	"fintrack/internal/domain/repository"
	"fmt"
	"sync"
	"time"
)

// ResetCodeTTL is how long a password reset code stays valid.
const ResetCodeTTL = 10 * time.Minute

var (
	ErrInvalidCredentials = common.NewError(common.ErrUnauthorized, "invalid credentials")
	ErrUserNotFound       = common.NewError(common.ErrNotFound, "user not found")
	ErrResetNotRequested  = common.ValidationError("reset code not requested")
	ErrResetCodeExpired   = common.ValidationError("reset code expired")
	ErrInvalidResetCode   = common.ValidationError("invalid reset code")
)

type AuthConfig struct {
	PasswordMinLen int
	// ExposeResetCode echoes the plaintext code in the forgot-password response.
	ExposeResetCode bool
}

// dummyPasswordHash is compared against when the username is unknown, so
// both login failure paths pay one bcrypt comparison.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := security.HashPassword("fintrack-unknown-user")
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return hash
})

type AuthService struct {
	userRepo      repository.UserRepository
	tokens        *security.TokenService
	sender        notify.CodeSender
	cfg           AuthConfig
	now           func() time.Time
	checkPassword func(password, hash string) bool
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenService, sender notify.CodeSender, cfg AuthConfig) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokens:        tokens,
		sender:        sender,
		cfg:           cfg,
		now:           time.Now,
		checkPassword: security.CheckPasswordHash,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int64            `json:"expires_in"`
	User        model.PublicUser `json:"user"`
}

type ForgotPasswordRequest struct {
	Username string `json:"username" validate:"required"`
}

type ForgotPasswordResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.checkPassword(req.Password, dummyPasswordHash())
			return nil, ErrInvalidCredentials // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.checkPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{
		AccessToken: token.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(token.ExpiresIn.Seconds()),
		User:        user.Public(),
	}, nil
}

// ForgotPassword issues a fresh reset code, replacing any pending one.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	code, err := security.GenerateResetCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset code: %w", err)
	}
	codeHash, err := security.HashPassword(code)
	if err != nil {
		return nil, fmt.Errorf("failed to hash reset code: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(ResetCodeTTL)
	var userID string
	err = s.userRepo.UpdateCredentials(ctx, req.Username, func(u *model.User) (bool, error) {
		userID = u.ID
		u.SetResetCode(codeHash, expiresAt, now)
		return true, nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to store reset code: %w", err)
	}

	msg := notify.ResetCodeMessage{UserID: userID, Username: req.Username, Code: code, ExpiresAt: expiresAt}
	if err := s.sender.SendResetCode(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to deliver reset code: %w", err)
	}

	resp := &ForgotPasswordResponse{Message: "reset code sent"}
	if s.cfg.ExposeResetCode {
		resp.Code = code
	}
	return resp, nil
}

// ResetPassword consumes a pending reset code. The code is cleared on success
// and when it is presented after expiry.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	if err := checkPasswordLength(s.cfg.PasswordMinLen, "new_password", req.NewPassword); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	err := s.userRepo.UpdateCredentials(ctx, req.Username, func(u *model.User) (bool, error) {
		if !u.HasPendingReset() {
			return false, ErrResetNotRequested
		}
		if now.After(*u.ResetCodeExpiresAt) {
			u.ClearResetCode(now)
			return true, ErrResetCodeExpired
		}
		if !security.CheckPasswordHash(req.Code, *u.ResetCodeHash) {
			return false, ErrInvalidResetCode
		}

		hash, err := security.HashPassword(req.NewPassword)
		if err != nil {
			return false, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
		u.ClearResetCode(now)
		return true, nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &MessageResponse{Message: "password updated"}, nil
}

func checkPasswordLength(minLen int, field, password string) error {
	var msg string
	switch {
	case len(password) < minLen:
		msg = fmt.Sprintf("password must be at least %d characters", minLen)
	case len(password) > security.MaxPasswordBytes:
		msg = fmt.Sprintf("password must be at most %d bytes", security.MaxPasswordBytes)
	default:
		return nil
	}
	return common.ValidationError(msg, common.FieldError{Field: field, Message: msg})
}
