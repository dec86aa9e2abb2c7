package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	resp "blog_api/internal/lib/api/response"
	"blog_api/internal/lib/jwt"
	sl "blog_api/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type contextKey struct{}

var userIDKey = contextKey{}

// UserID extracts the authenticated user id stored by the middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithUserID is exported for handler tests that bypass the middleware.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New verifies the bearer access token on every protected request and
// attaches the resolved user id to the request context.
func New(log *slog.Logger, accessTokenSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.New"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.AuthenticationError("Access denied, no token provided"))

				return
			}

			userID, err := jwt.ParseToken(token, accessTokenSecret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, resp.AuthenticationError("Access token expired, request a new one with refresh token"))

					return
				}
				if errors.Is(err, jwt.ErrTokenInvalid) {
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, resp.AuthenticationError("Access token invalid"))

					return
				}

				log.Error("failed to verify access token", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal server error"))

				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
