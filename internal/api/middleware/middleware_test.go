package middleware

import (
	"context"
	"errors"
	"fintrack/internal/common/security"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"forwarded first entry", "203.0.113.7, 10.0.0.1", "10.0.0.9:5000", "203.0.113.7"},
		{"remote host", "", "192.0.2.4:41234", "192.0.2.4"},
		{"remote without port", "", "192.0.2.4", "192.0.2.4"},
		{"blank forwarded", " , 10.0.0.1", "192.0.2.5:80", "192.0.2.5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, ClientKey(req))
		})
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	rec := httptest.NewRecorder()
	RateLimit(limiter, zap.NewNop())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, []string{"192.0.2.1"}, limiter.keys)
}

func TestRateLimit_BackendFailure(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis: connection refused")}
	rec := httptest.NewRecorder()
	RateLimit(limiter, zap.NewNop())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "trace-42", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "trace-42", seen)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, seen)
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestLogging_CapturesStatus(t *testing.T) {
	lrw := &loggingResponseWriter{ResponseWriter: httptest.NewRecorder()}
	lrw.WriteHeader(http.StatusCreated)
	n, err := lrw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, lrw.status)
	assert.Equal(t, 5, lrw.size)
}

func TestAuthenticator(t *testing.T) {
	tokens := security.NewTokenService([]byte("middleware-test-key"), time.Hour)
	issued, err := tokens.Issue("u-1", "user1", "user")
	require.NoError(t, err)

	var seen string
	h := Authenticator(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"valid", "Bearer " + issued.Token, http.StatusNoContent, ""},
		{"missing", "", http.StatusUnauthorized, "missing token"},
		{"not bearer", "Basic dXNlcjE6MTExMQ==", http.StatusUnauthorized, "missing token"},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "invalid token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.message != "" {
				assert.Contains(t, rec.Body.String(), tc.message)
				assert.Empty(t, seen)
				return
			}
			assert.Equal(t, "u-1", seen)
		})
	}
}
