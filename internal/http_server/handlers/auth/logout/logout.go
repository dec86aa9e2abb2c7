package logout

import (
	"context"
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

// New revokes the session by deleting the stored refresh token and
// clearing the cookie. Missing cookie is the only client error; a
// token already gone from storage is ignored.
func New(
	log *slog.Logger,
	authService *auth.Auth,
	secureCookies bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		cookie, err := r.Cookie(cookies.RefreshTokenCookie)
		if err != nil {
			log.Warn("logout attempt without refresh token")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.MissingToken("Refresh token not found or already expired"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := authService.Logout(ctx, cookie.Value); err != nil {
			log.Error("failed to logout user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		cookies.ClearRefreshToken(w, secureCookies)

		render.NoContent(w, r)
	}
}
