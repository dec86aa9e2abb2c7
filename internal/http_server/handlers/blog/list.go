package blog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"blog_api/internal/lib/api/pagination"
	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ListResponse struct {
	resp.Response
	Blogs  []models.Blog `json:"blogs"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// NewList returns a page of blogs, newest first. Readers with the user
// role see only published posts; admins also see drafts.
func NewList(
	log *slog.Logger,
	blogs BlogStore,
	roles RoleProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blog.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		listBlogs(w, r, log, blogs, roles, 0)
	}
}

// NewListByUser returns a page of blogs by a single author. Drafts are
// visible to admins and to the author themselves.
func NewListByUser(
	log *slog.Logger,
	blogs BlogStore,
	roles RoleProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blog.NewListByUser"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		authorID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.BadRequest("Invalid user ID"))

			return
		}

		listBlogs(w, r, log, blogs, roles, authorID)
	}
}

func listBlogs(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	blogs BlogStore,
	roles RoleProvider,
	authorID int64,
) {
	userID, ok := authn.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.AuthenticationError("Access denied, no token provided"))

		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	role, err := roles.UserRole(ctx, userID)
	if err != nil {
		log.Error("failed to get user role", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal server error"))

		return
	}

	publishedOnly := role != models.RoleAdmin
	if authorID != 0 && authorID == userID {
		// Authors always see their own drafts.
		publishedOnly = false
	}

	limit, offset := pagination.FromRequest(r)

	page, err := blogs.Blogs(ctx, publishedOnly, authorID, limit, offset)
	if err != nil {
		log.Error("failed to list blogs", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal server error"))

		return
	}

	render.JSON(w, r, ListResponse{
		Response: resp.OK(),
		Blogs:    page,
		Limit:    limit,
		Offset:   offset,
	})
}
