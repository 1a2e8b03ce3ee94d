package middleware

import (
	"net/http"
	"strings"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/infrastructure/auth"
	"github.com/tanbank/tanbank/internal/infrastructure/metrics"
)

// AuthMiddleware verifies the Bearer token and puts the authenticated
// user on the request context.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	metrics    *metrics.Metrics
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(jwtManager *auth.JWTManager, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, metrics: m}
}

// Wrap wraps an http.Handler with token authentication.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.reject(w, "missing_header", "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.reject(w, "malformed_header", "invalid authorization header format")
			return
		}

		user, err := m.jwtManager.Verify(parts[1])
		if err != nil {
			m.reject(w, "invalid_token", "invalid or expired token")
			return
		}

		ctx := domain.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, reason, message string) {
	if m.metrics != nil {
		m.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
	http.Error(w, message, http.StatusUnauthorized)
}
