package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raiyanplanet/Wibloo/metrics"
	"github.com/raiyanplanet/Wibloo/models"
)

type ctxKey int

const userIdKey ctxKey = iota

// userIdFromCtx is the identity resolver: it reports the authenticated
// caller, or false for anonymous requests.
func userIdFromCtx(ctx context.Context) (string, bool) {
	userId, ok := ctx.Value(userIdKey).(string)
	return userId, ok && userId != ""
}

func withUserId(ctx context.Context, userId string) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.RequestTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zap.S().Infof("Request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the bearer token into a user id. When
// required is false a missing or broken token just leaves the request
// anonymous so queries can degrade instead of erroring.
func authMiddleware(next http.Handler, config models.Config, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			if required {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		userId, err := ValidateToken(token, config.JWTSecret)
		if err != nil {
			if required {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserId(r.Context(), userId)))
	})
}

func rateLimitMiddleware(next http.Handler, limiter *RateLimiter) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := limiter.AllowRequest(r)
		if err != nil {
			// Fail open, the limiter already logged it.
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
