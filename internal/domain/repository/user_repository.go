package repository

import (
	"context"
	"database/sql"
	"errors"
	"fintrack/internal/common"
	"fintrack/internal/domain/model"
	"fintrack/internal/platform/database"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CredentialUpdate mutates a locked user record. When persist is true the
// record is written back even if err is non-nil, so terminal outcomes such as
// an expired reset code can be recorded alongside the error.
type CredentialUpdate func(u *model.User) (persist bool, err error)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// CreateFirst inserts user only while the table is empty.
	CreateFirst(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// UpdateCredentials applies fn to the user under an exclusive lock.
	UpdateCredentials(ctx context.Context, username string, fn CredentialUpdate) error
}

var (
	errUsernameTaken  = common.NewError(common.ErrConflict, "username already exists")
	errUsersExist     = common.NewError(common.ErrConflict, "users already exist")
	userSelectColumns = `id, username, role, password_hash, reset_code_hash, reset_code_expires_at, created_at, updated_at`
)

type pgUserRepository struct {
	db *sqlx.DB
}

func NewPgUserRepository(db *sqlx.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, role, password_hash, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return errUsernameTaken
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) CreateFirst(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, role, password_hash, created_at, updated_at)
	          SELECT $1, $2, $3, $4, $5, $6
	          WHERE NOT EXISTS (SELECT 1 FROM users)`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return errUsersExist
		}
		return fmt.Errorf("pgUserRepository.CreateFirst: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.CreateFirst: %w", err)
	}
	if n == 0 {
		return errUsersExist
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, `SELECT `+userSelectColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByUsername: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	user := &model.User{}
	err := r.db.GetContext(ctx, user, `SELECT `+userSelectColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdateCredentials(ctx context.Context, username string, fn CredentialUpdate) error {
	var outcome error
	err := database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		user := &model.User{}
		err := tx.GetContext(ctx, user, `SELECT `+userSelectColumns+` FROM users WHERE username = $1 FOR UPDATE`, username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("pgUserRepository.UpdateCredentials select: %w", err)
		}

		persist, fnErr := fn(user)
		outcome = fnErr
		if !persist {
			return nil
		}

		query := `UPDATE users SET password_hash = $1, reset_code_hash = $2, reset_code_expires_at = $3, updated_at = $4
		          WHERE id = $5`
		if _, err := tx.ExecContext(ctx, query, user.PasswordHash, user.ResetCodeHash, user.ResetCodeExpiresAt, user.UpdatedAt, user.ID); err != nil {
			return fmt.Errorf("pgUserRepository.UpdateCredentials update: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return outcome
}
