package blog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type UpdateRequest struct {
	Title   string `json:"title" validate:"omitempty,max=180"`
	Content string `json:"content"`
	Status  string `json:"status" validate:"omitempty,oneof=draft published"`
}

// NewUpdate applies a partial update to a blog. Only the author or an
// admin may modify it.
func NewUpdate(
	log *slog.Logger,
	validate *validator.Validate,
	blogs BlogStore,
	roles RoleProvider,
	banners BannerUploader,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blog.NewUpdate"

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

		var req UpdateRequest

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				log.Error("Failed to parse multipart form", sl.Err(err))

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.BadRequest("Failed to decode request"))

				return
			}
			req.Title = r.FormValue("title")
			req.Content = r.FormValue("content")
			req.Status = r.FormValue("status")
		} else if err := render.DecodeJSON(r.Body, &req); err != nil {
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

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
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
			log.Warn("blog update denied", slog.Int64("uid", userID), slog.Int64("blog_id", blogID))

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.AuthorizationError("Access denied, insufficient permissions"))

			return
		}

		if req.Title != "" {
			blog.Title = req.Title
		}
		if req.Content != "" {
			blog.Content = req.Content
		}
		if req.Status != "" {
			blog.Status = req.Status
		}

		bannerURL, err := uploadBanner(ctx, r, banners)
		if err != nil {
			log.Error("failed to upload banner", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}
		if bannerURL != "" {
			blog.BannerURL = bannerURL
		}

		updated, err := blogs.UpdateBlog(ctx, blog)
		if err != nil {
			log.Error("failed to update blog", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		log.Info("blog updated", slog.Int64("blog_id", updated.ID))

		render.JSON(w, r, BlogResponse{
			Response: resp.OK(),
			Blog:     updated,
		})
	}
}
