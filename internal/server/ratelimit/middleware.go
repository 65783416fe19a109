package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Middleware rejects requests over their allowance with 429 and sets the
// X-RateLimit-* headers on every limited response.
func Middleware(l *Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientID(r)
			info := l.Allow(client, r.URL.Path, r.Method)
			setHeaders(w, info)

			if !info.Allowed {
				logger.Warn("rate limit exceeded",
					zap.String("client", client),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("limit", info.Limit),
					zap.Duration("retry_after", info.RetryAfter),
				)
				writeRejection(w, info)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientID identifies the caller by the host part of RemoteAddr.
// X-Forwarded-For is ignored since it is client controlled.
func ClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setHeaders(w http.ResponseWriter, info Info) {
	if info.Limit <= 0 {
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
}

func writeRejection(w http.ResponseWriter, info Info) {
	body := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		body["reset_at"] = info.ResetTime.UTC().Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		body["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(body)
}
