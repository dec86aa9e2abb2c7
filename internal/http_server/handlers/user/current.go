package user

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type UserResponse struct {
	resp.Response
	User models.User `json:"user"`
}

func NewGetCurrent(
	log *slog.Logger,
	users UserStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.NewGetCurrent"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		u, err := users.UserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.NotFound("User not found"))

				return
			}

			log.Error("failed to get user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		render.JSON(w, r, UserResponse{
			Response: resp.OK(),
			User:     u,
		})
	}
}

type UpdateRequest struct {
	Username  string `json:"username" validate:"omitempty,max=20"`
	Email     string `json:"email" validate:"omitempty,email,max=50"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	FirstName string `json:"first_name" validate:"omitempty,max=20"`
	LastName  string `json:"last_name" validate:"omitempty,max=20"`
	Website   string `json:"website" validate:"omitempty,url,max=100"`
	Facebook  string `json:"facebook" validate:"omitempty,url,max=100"`
	Instagram string `json:"instagram" validate:"omitempty,url,max=100"`
	X         string `json:"x" validate:"omitempty,url,max=100"`
	YouTube   string `json:"youtube" validate:"omitempty,url,max=100"`
}

// NewUpdateCurrent applies a partial profile update. A new password is
// re-hashed before it is stored.
func NewUpdateCurrent(
	log *slog.Logger,
	validate *validator.Validate,
	users UserStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.NewUpdateCurrent"

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

		var req UpdateRequest

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

		u, err := users.UserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.NotFound("User not found"))

				return
			}

			log.Error("failed to get user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		if req.Username != "" {
			u.Username = req.Username
		}
		if req.Email != "" {
			u.Email = req.Email
		}
		if req.Password != "" {
			passHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				log.Error("failed to generate password hash", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal server error"))

				return
			}
			u.PassHash = passHash
		}
		if req.FirstName != "" {
			u.FirstName = req.FirstName
		}
		if req.LastName != "" {
			u.LastName = req.LastName
		}
		if req.Website != "" {
			u.SocialLinks.Website = req.Website
		}
		if req.Facebook != "" {
			u.SocialLinks.Facebook = req.Facebook
		}
		if req.Instagram != "" {
			u.SocialLinks.Instagram = req.Instagram
		}
		if req.X != "" {
			u.SocialLinks.X = req.X
		}
		if req.YouTube != "" {
			u.SocialLinks.YouTube = req.YouTube
		}

		if err := users.UpdateUser(ctx, u); err != nil {
			if errors.Is(err, storage.ErrUserExists) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.BadRequest("This username or email is already in use"))

				return
			}

			log.Error("failed to update user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		log.Info("user updated", slog.Int64("uid", userID))

		render.JSON(w, r, UserResponse{
			Response: resp.OK(),
			User:     u,
		})
	}
}

func NewDeleteCurrent(
	log *slog.Logger,
	users UserStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.NewDeleteCurrent"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := users.DeleteUser(ctx, userID); err != nil {
			log.Error("failed to delete user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		log.Info("user account deleted", slog.Int64("uid", userID))

		render.NoContent(w, r)
	}
}
