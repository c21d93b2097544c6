package service

import (
	"context"
	"errors"
	"fintrack/internal/app/notify"
	"fintrack/internal/common"
	"fintrack/internal/common/security"
	"fintrack/internal/domain/model"
	"fintrack/internal/domain/repository"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []notify.ResetCodeMessage
	err  error
}

func (r *recordingSender) SendResetCode(_ context.Context, msg notify.ResetCodeMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingSender) last() notify.ResetCodeMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgs[len(r.msgs)-1]
}

type authFixture struct {
	users  repository.UserRepository
	tokens *security.TokenService
	sender *recordingSender
	auth   *AuthService
	now    time.Time
}

func newAuthFixture(t *testing.T, cfg AuthConfig) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  repository.NewMemoryUserRepository(),
		tokens: security.NewTokenService([]byte("test-key"), time.Hour),
		sender: &recordingSender{},
		now:    time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	f.auth = NewAuthService(f.users, f.tokens, f.sender, cfg)
	f.auth.now = func() time.Time { return f.now }

	users := NewUserService(f.users, 4)
	require.NoError(t, users.SeedDemoUsers(context.Background(), zap.NewNop()))
	return f
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, AuthConfig{PasswordMinLen: 4})
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, LoginRequest{Username: "user1", Password: "1111"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "user1", resp.User.Username)
	assert.Equal(t, model.RoleUser, resp.User.Role)

	claims, err := f.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = f.auth.Login(ctx, LoginRequest{Username: "user1", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Username: "nobody", Password: "1111"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Username: "USER1", Password: "1111"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestLogin_UnknownUserStillComparesHash(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, AuthConfig{PasswordMinLen: 4})

	var hashes []string
	f.auth.checkPassword = func(password, hash string) bool {
		hashes = append(hashes, hash)
		return security.CheckPasswordHash(password, hash)
	}

	_, err := f.auth.Login(context.Background(), LoginRequest{Username: "nobody", Password: "1111"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hashes, 1)
	assert.True(t, strings.HasPrefix(hashes[0], "$2a$"), hashes[0])

	_, err = f.auth.Login(context.Background(), LoginRequest{Username: "user1", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, hashes, 2)
}

func TestForgotPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dev := newAuthFixture(t, AuthConfig{PasswordMinLen: 4, ExposeResetCode: true})
	resp, err := dev.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "user1"})
	require.NoError(t, err)
	assert.Len(t, resp.Code, security.ResetCodeLength)
	assert.Equal(t, resp.Code, dev.sender.last().Code)
	assert.Equal(t, dev.now.Add(ResetCodeTTL), dev.sender.last().ExpiresAt)

	u, err := dev.users.FindByUsername(ctx, "user1")
	require.NoError(t, err)
	require.True(t, u.HasPendingReset())
	assert.NotEqual(t, resp.Code, *u.ResetCodeHash)

	prod := newAuthFixture(t, AuthConfig{PasswordMinLen: 8})
	resp, err = prod.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "user1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Code)
	assert.Len(t, prod.sender.last().Code, security.ResetCodeLength)

	_, err = prod.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "ghost"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestForgotPassword_DeliveryFailure(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, AuthConfig{PasswordMinLen: 4})
	f.sender.err = errors.New("queue down")

	_, err := f.auth.ForgotPassword(context.Background(), ForgotPasswordRequest{Username: "user1"})
	require.Error(t, err)
	status, _ := common.HTTPStatusFromError(err)
	assert.Equal(t, 500, status)
}

func TestResetPassword_SingleUse(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, AuthConfig{PasswordMinLen: 4, ExposeResetCode: true})
	ctx := context.Background()

	forgot, err := f.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "user1"})
	require.NoError(t, err)

	req := ResetPasswordRequest{Username: "user1", Code: forgot.Code, NewPassword: "new-pass"}
	resp, err := f.auth.ResetPassword(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "password updated", resp.Message)

	_, err = f.auth.ResetPassword(ctx, req)
	assert.ErrorIs(t, err, ErrResetNotRequested)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.auth.Login(ctx, LoginRequest{Username: "user1", Password: "1111"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Username: "user1", Password: "new-pass"})
	assert.NoError(t, err)
}

func TestResetPassword_Failures(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, AuthConfig{PasswordMinLen: 4, ExposeResetCode: true})
	ctx := context.Background()

	_, err := f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "ghost", Code: "123456", NewPassword: "long-enough"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "user1", Code: "123456", NewPassword: "long-enough"})
	assert.ErrorIs(t, err, ErrResetNotRequested)

	forgot, err := f.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "user1"})
	require.NoError(t, err)

	_, err = f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "user1", Code: forgot.Code, NewPassword: "abc"})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "user1", Code: forgot.Code, NewPassword: strings.Repeat("x", security.MaxPasswordBytes+1)})
	assert.ErrorIs(t, err, common.ErrValidation)

	wrong := "000000"
	if forgot.Code == wrong {
		wrong = "111111"
	}
	_, err = f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "user1", Code: wrong, NewPassword: "long-enough"})
	assert.ErrorIs(t, err, ErrInvalidResetCode)

	u, err := f.users.FindByUsername(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, u.HasPendingReset(), "a wrong code must not consume the pending reset")
}

func TestResetPassword_ExpiredCodeIsCleared(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, AuthConfig{PasswordMinLen: 4, ExposeResetCode: true})
	ctx := context.Background()

	forgot, err := f.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "user2"})
	require.NoError(t, err)

	f.now = f.now.Add(ResetCodeTTL)
	_, err = f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "user2", Code: forgot.Code, NewPassword: "still-valid"})
	require.NoError(t, err, "a code is valid up to and including its expiry instant")

	forgot, err = f.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "user2"})
	require.NoError(t, err)
	f.now = f.now.Add(ResetCodeTTL + time.Second)

	_, err = f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "user2", Code: forgot.Code, NewPassword: "too-late"})
	assert.ErrorIs(t, err, ErrResetCodeExpired)

	u, err := f.users.FindByUsername(ctx, "user2")
	require.NoError(t, err)
	assert.False(t, u.HasPendingReset())
}

func TestResetPassword_ConcurrentUseAdmitsOne(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t, AuthConfig{PasswordMinLen: 4, ExposeResetCode: true})
	ctx := context.Background()

	forgot, err := f.auth.ForgotPassword(ctx, ForgotPasswordRequest{Username: "admin"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.auth.ResetPassword(ctx, ResetPasswordRequest{Username: "admin", Code: forgot.Code, NewPassword: "rotated"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestUserService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	svc := NewUserService(repo, 4)

	_, err := svc.Create(ctx, CreateUserRequest{Username: "x", Password: "123"})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Create(ctx, CreateUserRequest{Username: "  ", Password: "1234"})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Create(ctx, CreateUserRequest{Username: "longpw", Password: strings.Repeat("x", 80)})
	var verr *common.Error
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, []any{common.FieldError{Field: "password", Message: "password must be at most 72 bytes"}}, verr.Details)
	_, err = svc.Bootstrap(ctx, CreateUserRequest{Username: "longpw", Password: strings.Repeat("x", 80)})
	assert.ErrorIs(t, err, common.ErrValidation)

	root, err := svc.Bootstrap(ctx, CreateUserRequest{Username: "root", Password: "toor"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, root.Role)

	_, err = svc.Bootstrap(ctx, CreateUserRequest{Username: "second", Password: "toor"})
	assert.ErrorIs(t, err, common.ErrConflict)

	alice, err := svc.Create(ctx, CreateUserRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, alice.Role)

	_, err = svc.Create(ctx, CreateUserRequest{Username: "alice", Password: "secret"})
	assert.ErrorIs(t, err, common.ErrConflict)
	_, err = svc.Create(ctx, CreateUserRequest{Username: "maxpw", Password: strings.Repeat("x", security.MaxPasswordBytes)})
	require.NoError(t, err)

	me, err := svc.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.False(t, me.CreatedAt.IsZero())

	_, err = svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSeedDemoUsers_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	svc := NewUserService(repo, 8)

	require.NoError(t, svc.SeedDemoUsers(ctx, zap.NewNop()))
	require.NoError(t, svc.SeedDemoUsers(ctx, zap.NewNop()))

	for _, seed := range DemoUsers {
		_, err := repo.FindByUsername(ctx, seed.Username)
		require.NoError(t, err, seed.Username)
	}

	admin, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
}

func TestTransactionService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewTransactionService(repository.NewMemoryTransactionRepository())

	req := CreateTransactionRequest{
		ReceiverType: "individual", ReceiverName: "A",
		PayerType: "legal", PayerName: "B",
		PaymentMethod: "cash", Currency: "USD",
		Amount: 0.1 + 0.2, DatetimeISO: "2024-03-15T13:30:00+03:30", Timezone: "Asia/Tehran",
	}
	created, err := svc.Create(ctx, "owner", req)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T10:00:00Z", created.DatetimeISO)

	got, err := svc.Get(ctx, "owner", created.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Amount, got.Amount)

	_, err = svc.Get(ctx, "intruder", created.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	bad := req
	bad.DatetimeISO = "15/03/2024"
	_, err = svc.Create(ctx, "owner", bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	bad = req
	bad.Amount = -1
	_, err = svc.Create(ctx, "owner", bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	list, err := svc.List(ctx, "owner", model.TransactionQuery{
		Filter: model.TransactionFilter{OwnerID: "someone-else"}, SortBy: model.SortByDate, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Meta.Total)

	summary, err := svc.Summary(ctx, "owner", model.TransactionFilter{Month: 3})
	require.NoError(t, err)
	assert.Equal(t, req.Amount, summary.Monthly[2].Amount)

	require.NoError(t, svc.Delete(ctx, "owner", created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "owner", created.ID), common.ErrNotFound)
}
