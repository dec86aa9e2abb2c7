package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type RoleProvider interface {
	UserRole(ctx context.Context, userID int64) (string, error)
}

// New permits the request only when the user's CURRENT role is in the
// allowed set. The role is read from storage on every request rather
// than trusted from the token, so a role change takes effect
// immediately.
func New(log *slog.Logger, roles RoleProvider, allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authz.New"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userID, ok := authn.UserID(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.AuthenticationError("Access denied, no token provided"))

				return
			}

			role, err := roles.UserRole(r.Context(), userID)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					render.Status(r, http.StatusNotFound)
					render.JSON(w, r, resp.NotFound("User not found"))

					return
				}

				log.Error("failed to get user role", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal server error"))

				return
			}

			if _, ok := allowedSet[role]; !ok {
				log.Warn("insufficient permissions", slog.Int64("uid", userID), slog.String("role", role))

				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.AuthorizationError("Access denied, insufficient permissions"))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
