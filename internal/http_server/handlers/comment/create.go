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
	"github.com/go-playground/validator/v10"
)

type CreateRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type CreateResponse struct {
	resp.Response
	Comment models.Comment `json:"comment"`
}

// NewCreate adds a comment to a blog and bumps the blog's comment
// counter in the same transaction.
func NewCreate(
	log *slog.Logger,
	validate *validator.Validate,
	comments CommentStore,
	blogs BlogProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.NewCreate"

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

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.BadRequest("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

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

		comment, err := comments.SaveComment(ctx, models.Comment{
			BlogID:  blogID,
			UserID:  userID,
			Content: req.Content,
		})
		if err != nil {
			log.Error("failed to save comment", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		log.Info("comment created", slog.Int64("comment_id", comment.ID), slog.Int64("blog_id", blogID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{
			Response: resp.OK(),
			Comment:  comment,
		})
	}
}
