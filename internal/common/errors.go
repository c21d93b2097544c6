package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrConflict       = errors.New("resource conflict") // e.g., username already exists
	ErrValidation     = errors.New("invalid request")
	ErrRateLimited    = errors.New("too many requests")
	ErrInternalServer = errors.New("internal server error")
)

// Error codes carried in the error envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error is a domain error with a caller-facing message. It unwraps to one of
// the sentinel errors above, which decides the HTTP status.
type Error struct {
	Kind    error
	Message string
	Details []any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds a domain error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// ValidationError builds an ErrValidation error with optional details.
func ValidationError(message string, details ...any) *Error {
	return &Error{Kind: ErrValidation, Message: message, Details: details}
}

// FieldError describes a single offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidField builds an ErrValidation error naming the offending field.
func InvalidField(field, message string) *Error {
	return ValidationError(fmt.Sprintf("invalid %s", field), FieldError{Field: field, Message: message})
}

// HTTPStatusFromError maps domain errors to HTTP status codes and envelope codes.
func HTTPStatusFromError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest, CodeValidation
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized, CodeUnauthorized
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound, CodeNotFound
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict, CodeConflict
	}
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests, CodeRateLimited
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict, CodeConflict
		}
	}

	return http.StatusInternalServerError, CodeInternal
}

// IsUniqueViolation reports whether err comes from a Postgres unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
