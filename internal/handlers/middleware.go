package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"tearound/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenVerifier
	limiter *security.RateLimiter
	debug   bool
}

// NewMiddleware creates a new middleware instance. A nil limiter disables rate limiting.
func NewMiddleware(tokens *security.TokenVerifier, limiter *security.RateLimiter, debug bool) *Middleware {
	return &Middleware{
		tokens:  tokens,
		limiter: limiter,
		debug:   debug,
	}
}

// RequireUser is middleware that requires a valid bearer token
func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.tokens.Verify(security.BearerToken(r.Header.Get("Authorization")))
		if err != nil {
			if m.debug && !errors.Is(err, security.ErrMissingToken) {
				log.Printf("[DEBUG] Rejected token on %s %s: %v", r.Method, r.URL.Path, err)
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="tearound"`)
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per authenticated user. It must run inside RequireUser.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(GetUserFromContext(r.Context())) {
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Call next handler
		next.ServeHTTP(w, r)

		// Log request
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserFromContext retrieves the user ID from the request context
func GetUserFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserContextKey).(string)
	return userID
}
