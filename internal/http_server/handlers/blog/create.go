package blog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/lib/random"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type CreateRequest struct {
	Title   string `json:"title" validate:"required,max=180"`
	Content string `json:"content" validate:"required"`
	Status  string `json:"status" validate:"omitempty,oneof=draft published"`
}

type BlogResponse struct {
	resp.Response
	Blog models.Blog `json:"blog"`
}

func NewCreate(
	log *slog.Logger,
	validate *validator.Validate,
	blogs BlogStore,
	banners BannerUploader,
	events EventPublisher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blog.NewCreate"

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

		var req CreateRequest

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

		if req.Status == "" {
			req.Status = models.BlogStatusDraft
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		bannerURL, err := uploadBanner(ctx, r, banners)
		if err != nil {
			log.Error("failed to upload banner", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		blog, err := blogs.SaveBlog(ctx, models.Blog{
			Title:     req.Title,
			Slug:      random.NewSlug(req.Title),
			Content:   req.Content,
			BannerURL: bannerURL,
			Status:    req.Status,
			AuthorID:  userID,
		})
		if err != nil {
			log.Error("failed to save blog", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		if blog.Status == models.BlogStatusPublished {
			event := models.Event{
				Type:   "blog_published",
				UserID: userID,
				BlogID: blog.ID,
			}
			if err := events.PublishEvent(ctx, event); err != nil {
				log.Error("failed to publish event", sl.Err(err))
			}
		}

		log.Info("blog created", slog.Int64("blog_id", blog.ID), slog.String("slug", blog.Slug))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, BlogResponse{
			Response: resp.OK(),
			Blog:     blog,
		})
	}
}

func uploadBanner(ctx context.Context, r *http.Request, banners BannerUploader) (string, error) {
	file, header, err := bannerFile(r)
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", nil
	}
	defer file.Close()

	return banners.UploadBanner(ctx, file, header.Size, header.Header.Get("Content-Type"))
}
