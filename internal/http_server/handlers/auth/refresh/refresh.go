package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"blog_api/internal/auth"
	"blog_api/internal/http_server/cookies"
	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	AccessToken string `json:"accessToken"`
}

// New exchanges the refresh-token cookie for a fresh access token. The
// stored token is checked for existence before its signature so that
// logout-deleted tokens fail even while cryptographically valid.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		cookie, err := r.Cookie(cookies.RefreshTokenCookie)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.AuthenticationError("Invalid refresh token"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		accessToken, err := authService.Refresh(ctx, cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrRefreshTokenExpired) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.AuthenticationError("Refresh token expired, please login again"))

				return
			}
			if errors.Is(err, auth.ErrInvalidRefreshToken) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.AuthenticationError("Invalid refresh token"))

				return
			}

			log.Error("failed to refresh access token", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			AccessToken: accessToken,
		})
	}
}
