package comment

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
	"blog_api/internal/models"
	"blog_api/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// NewDelete removes a comment and decrements the blog's comment
// counter. Only the comment's author or an admin may delete it.
func NewDelete(
	log *slog.Logger,
	comments CommentStore,
	roles RoleProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.NewDelete"

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

		commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.BadRequest("Invalid comment ID"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		comment, err := comments.CommentByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, storage.ErrCommentNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.NotFound("Comment not found"))

				return
			}

			log.Error("failed to get comment", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

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

		if comment.UserID != userID && role != models.RoleAdmin {
			log.Warn("comment delete denied", slog.Int64("uid", userID), slog.Int64("comment_id", commentID))

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.AuthorizationError("Access denied, insufficient permissions"))

			return
		}

		if err := comments.DeleteComment(ctx, commentID); err != nil {
			log.Error("failed to delete comment", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		log.Info("comment deleted", slog.Int64("comment_id", commentID))

		render.NoContent(w, r)
	}
}
