package like

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

type LikeStore interface {
	SaveLike(ctx context.Context, blogID, userID int64) (likesCount int64, err error)
	DeleteLike(ctx context.Context, blogID, userID int64) (likesCount int64, err error)
}

type BlogProvider interface {
	BlogByID(ctx context.Context, id int64) (models.Blog, error)
}

type Response struct {
	resp.Response
	LikesCount int64 `json:"likesCount"`
}

// New likes a blog on behalf of the authenticated user. A user can
// like a blog at most once.
func New(
	log *slog.Logger,
	likes LikeStore,
	blogs BlogProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.like.New"

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

		if _, err := blogs.BlogByID(ctx, blogID); err != nil {
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

		likesCount, err := likes.SaveLike(ctx, blogID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrLikeExists) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.BadRequest("You already liked this blog"))

				return
			}

			log.Error("failed to save like", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		log.Info("blog liked", slog.Int64("uid", userID), slog.Int64("blog_id", blogID))

		render.JSON(w, r, Response{
			Response:   resp.OK(),
			LikesCount: likesCount,
		})
	}
}
