package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"blog_api/internal/config"
	"blog_api/internal/lib/jwt"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/lib/random"
	"blog_api/internal/models"
	"blog_api/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("user already exists")
	ErrAdminNotAllowed     = errors.New("email not allowed to register as admin")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	cfg         *config.Config
}

type UserSaver interface {
	SaveUser(ctx context.Context, username, email string, passHash []byte, role string) (uid int64, err error)

	SaveRefreshToken(ctx context.Context, token string, userID int64) error
	DeleteRefreshToken(ctx context.Context, token string) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	RefreshTokenExists(ctx context.Context, token string) (bool, error)
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	cfg *config.Config,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		cfg:         cfg,
	}
}

// Register creates a user with a generated username and immediately
// opens a session: both tokens are issued and the refresh token is
// persisted so logout can revoke it later.
func (a *Auth) Register(
	ctx context.Context,
	email, password, role string,
) (models.User, string, string, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	if role == models.RoleAdmin && !a.cfg.IsAdminEmail(email) {
		log.Warn("admin registration rejected, email not in the allow-list")
		return models.User{}, "", "", ErrAdminNotAllowed
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	username := random.NewUsername()

	id, err := a.usrSaver.SaveUser(ctx, username, email, passHash, role)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.User{}, "", "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		ID:       id,
		Username: username,
		Email:    email,
		Role:     role,
	}

	accessToken, refreshToken, err := a.openSession(ctx, id)
	if err != nil {
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", id))

	return user, accessToken, refreshToken, nil
}

// Login проверяет учетные данные и возвращает пару токенов.
func (a *Auth) Login(
	ctx context.Context,
	email, password string,
) (models.User, string, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return models.User{}, "", "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return models.User{}, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := a.openSession(ctx, user.ID)
	if err != nil {
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return user, accessToken, refreshToken, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// store existence check runs before signature verification: a deleted
// token stays dead even while its signature is valid. The stored token
// is not rotated.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	exists, err := a.usrProvider.RefreshTokenExists(ctx, refreshToken)
	if err != nil {
		log.Error("failed to check refresh token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		log.Warn("refresh token not found")
		return "", ErrInvalidRefreshToken
	}

	userID, err := jwt.ParseToken(refreshToken, a.cfg.Tokens.RefreshTokenSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Warn("refresh token expired")
			return "", ErrRefreshTokenExpired
		}

		log.Warn("refresh token invalid", sl.Err(err))
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := jwt.NewAccessToken(userID, a.cfg.Tokens.AccessTokenSecret, a.cfg.Tokens.AccessTokenTTL)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("access token refreshed", slog.Int64("uid", userID))

	return accessToken, nil
}

// Logout deletes the stored refresh token. Deleting a token that is
// already gone is not an error.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if err := a.usrSaver.DeleteRefreshToken(ctx, refreshToken); err != nil {
		log.Error("failed to delete refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logout successful")

	return nil
}

func (a *Auth) openSession(ctx context.Context, userID int64) (string, string, error) {
	accessToken, err := jwt.NewAccessToken(userID, a.cfg.Tokens.AccessTokenSecret, a.cfg.Tokens.AccessTokenTTL)
	if err != nil {
		a.log.Error("failed to generate access token", sl.Err(err))
		return "", "", err
	}

	refreshToken, err := jwt.NewRefreshToken(userID, a.cfg.Tokens.RefreshTokenSecret, a.cfg.Tokens.RefreshTokenTTL)
	if err != nil {
		a.log.Error("failed to generate refresh token", sl.Err(err))
		return "", "", err
	}

	if err := a.usrSaver.SaveRefreshToken(ctx, refreshToken, userID); err != nil {
		a.log.Error("failed to save refresh token", sl.Err(err))
		return "", "", err
	}

	return accessToken, refreshToken, nil
}
