package blog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// NewDelete removes a blog. Only the author or an admin may delete it.
func NewDelete(
	log *slog.Logger,
	blogs BlogStore,
	roles RoleProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blog.NewDelete"

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

		blogID, err := strconv.ParseInt(chi.URLParam(r, "blogID"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.BadRequest("Invalid Blog ID"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		blog, err := blogs.BlogByID(ctx, blogID)
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

		role, err := roles.UserRole(ctx, userID)
		if err != nil {
			log.Error("failed to get user role", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		if !canModify(blog, userID, role) {
			log.Warn("blog delete denied", slog.Int64("uid", userID), slog.Int64("blog_id", blogID))

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.AuthorizationError("Access denied, insufficient permissions"))

			return
		}

		if err := blogs.DeleteBlog(ctx, blogID); err != nil {
			log.Error("failed to delete blog", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		log.Info("blog deleted", slog.Int64("blog_id", blogID))

		render.NoContent(w, r)
	}
}
