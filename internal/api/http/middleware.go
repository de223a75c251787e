package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"toolrental-backend/internal/config"
	"toolrental-backend/internal/domain"
	"toolrental-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey string

const actorKey contextKey = "actor"

// actorFrom returns the authenticated user, or nil on public routes.
func actorFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(actorKey).(*domain.User)
	return u
}

// authenticate validates the bearer token, resolves the local user from the
// username claim and checks the role against the route's security level.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeStatus(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authorization token is not provided")
			return
		}
		claims, err := h.tokens.ValidateToken(token)
		if err != nil {
			writeStatus(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid token")
			return
		}

		user, err := h.svc.Users.GetByUsername(r.Context(), claims.Username)
		if err != nil {
			logger.Warn("Token for unknown user", "username", claims.Username, "route", name)
			writeStatus(w, http.StatusUnauthorized, "UNAUTHENTICATED", "unknown user")
			return
		}
		if user.ExternalID != "" && user.ExternalID != claims.Subject {
			writeStatus(w, http.StatusUnauthorized, "UNAUTHENTICATED", "token subject does not match user")
			return
		}

		switch level {
		case config.SecurityStaff:
			if !user.Role.IsStaff() {
				writeStatus(w, http.StatusForbidden, "PERMISSION_DENIED", "staff role required")
				return
			}
		case config.SecurityAdmin:
			if !user.Role.IsAdmin() {
				writeStatus(w, http.StatusForbidden, "PERMISSION_DENIED", "admin role required")
				return
			}
		}

		ctx := context.WithValue(r.Context(), actorKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		return token[7:]
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags every request with an id and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Debug("HTTP request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
