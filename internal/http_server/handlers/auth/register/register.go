package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"blog_api/internal/auth"
	"blog_api/internal/http_server/cookies"
	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}

type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Response struct {
	resp.Response
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.Event) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	events EventPublisher,
	refreshTokenTTL time.Duration,
	secureCookies bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
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

		user, accessToken, refreshToken, err := authService.Register(ctx, req.Email, req.Password, req.Role)
		if err != nil {
			if errors.Is(err, auth.ErrAdminNotAllowed) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.AuthorizationError("You cannot register as an admin"))

				return
			}

			// Duplicate email falls through here too: registration
			// failures are reported as a generic server error.
			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal server error"))

			return
		}

		event := models.Event{
			Type:     "user_registered",
			UserID:   user.ID,
			Username: user.Username,
		}
		if err := events.PublishEvent(ctx, event); err != nil {
			log.Error("failed to publish event", sl.Err(err))
		}

		cookies.SetRefreshToken(w, refreshToken, refreshTokenTTL, secureCookies)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			User: User{
				Username: user.Username,
				Email:    user.Email,
				Role:     user.Role,
			},
			AccessToken: accessToken,
		})
	}
}
