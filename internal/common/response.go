package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorEnvelope converts err into the uniform error envelope and its status.
// Errors outside the domain taxonomy are reported with a generic message.
func ErrorEnvelope(err error) (int, ErrorResponse) {
	status, code := HTTPStatusFromError(err)
	body := ErrorBody{Code: code}

	var domainErr *Error
	switch {
	case status == http.StatusInternalServerError:
		body.Message = ErrInternalServer.Error()
	case errors.As(err, &domainErr):
		body.Message = domainErr.Error()
		body.Details = domainErr.Details
	default:
		body.Message = err.Error()
	}
	return status, ErrorResponse{Error: body}
}

func RespondWithError(w http.ResponseWriter, err error) {
	status, payload := ErrorEnvelope(err)
	RespondWithJSON(w, status, payload)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"failed to marshal JSON response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
