package comment

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ListResponse struct {
	resp.Response
	Data []models.Comment `json:"data"`
}

func NewList(
	log *slog.Logger,
	comments CommentStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		blogID, err := strconv.ParseInt(chi.URLParam(r, "blogID"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.BadRequest("Invalid Blog ID"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		data, err := comments.CommentsByBlog(ctx, blogID)
		if err != nil {
			log.Error("failed to list comments", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Data:     data,
		})
	}
}
