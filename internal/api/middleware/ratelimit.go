package middleware

import (
	"fintrack/internal/app/ratelimit"
	"fintrack/internal/common"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var errRateLimited = common.NewError(common.ErrRateLimited, "too many requests")

// ClientKey identifies the caller by the first X-Forwarded-For entry, falling
// back to the host of the connection's remote address.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects callers over the limiter's budget with 429.
func RateLimit(limiter ratelimit.Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(ratelimit.Window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), ClientKey(r))
			if err != nil {
				log.Error("rate limiter unavailable",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				common.RespondWithError(w, err)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", retryAfter)
				common.RespondWithError(w, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
