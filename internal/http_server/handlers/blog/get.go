package blog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/models"
	"blog_api/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// NewGet fetches a single blog by slug. Drafts are visible only to
// admins and the author.
func NewGet(
	log *slog.Logger,
	blogs BlogStore,
	roles RoleProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blog.NewGet"

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

		slug := chi.URLParam(r, "slug")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		role, err := roles.UserRole(ctx, userID)
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

		blog, err := blogs.BlogBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, storage.ErrBlogNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.NotFound("Blog not found"))

				return
			}

			log.Error("failed to get blog", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		if blog.Status == models.BlogStatusDraft && !canModify(blog, userID, role) {
			log.Warn("draft access denied", slog.Int64("uid", userID), slog.Int64("blog_id", blog.ID))

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.AuthorizationError("Access denied, insufficient permissions"))

			return
		}

		render.JSON(w, r, BlogResponse{
			Response: resp.OK(),
			Blog:     blog,
		})
	}
}
