package handler

import (
	"encoding/json"
	"errors"
	"fintrack/internal/api/middleware"
	"fintrack/internal/common"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ValidationError("invalid request payload")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate request: %w", err)
		}
		details := make([]any, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, common.FieldError{Field: fe.Field(), Message: describeFieldError(fe)})
		}
		return common.ValidationError("request validation failed", details...)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "is invalid"
}

// respondError writes the error envelope; unclassified errors are logged
// with the request id first.
func respondError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if status, _ := common.HTTPStatusFromError(err); status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	common.RespondWithError(w, err)
}

func currentUserID(r *http.Request) (string, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return "", common.NewError(common.ErrUnauthorized, "missing token")
	}
	return userID, nil
}
