package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"blog_api/internal/config"
	"blog_api/internal/lib/jwt"
	"blog_api/internal/models"
	"blog_api/internal/storage"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	users         map[string]models.User
	nextID        int64
	refreshTokens map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]models.User),
		nextID:        1,
		refreshTokens: make(map[string]int64),
	}
}

func (s *fakeStore) SaveUser(_ context.Context, username, email string, passHash []byte, role string) (int64, error) {
	if _, ok := s.users[email]; ok {
		return 0, storage.ErrUserExists
	}

	id := s.nextID
	s.nextID++
	s.users[email] = models.User{
		ID:       id,
		Username: username,
		Email:    email,
		PassHash: passHash,
		Role:     role,
	}

	return id, nil
}

func (s *fakeStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeStore) SaveRefreshToken(_ context.Context, token string, userID int64) error {
	s.refreshTokens[token] = userID
	return nil
}

func (s *fakeStore) DeleteRefreshToken(_ context.Context, token string) error {
	delete(s.refreshTokens, token)
	return nil
}

func (s *fakeStore) RefreshTokenExists(_ context.Context, token string) (bool, error) {
	_, ok := s.refreshTokens[token]
	return ok, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Env:         "local",
		AdminEmails: []string{"admin@example.com"},
		Tokens: config.Tokens{
			AccessTokenSecret:  "access-secret",
			RefreshTokenSecret: "refresh-secret",
			AccessTokenTTL:     15 * time.Minute,
			RefreshTokenTTL:    168 * time.Hour,
		},
	}
}

func newTestAuth(store *fakeStore) *Auth {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, store, testConfig())
}

func TestRegister(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	user, accessToken, refreshToken, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	require.Equal(t, "bob@example.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)
	require.Contains(t, user.Username, "user-")

	uid, err := jwt.ParseToken(accessToken, "access-secret")
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)

	uid, err = jwt.ParseToken(refreshToken, "refresh-secret")
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)

	require.Equal(t, user.ID, store.refreshTokens[refreshToken])
}

func TestRegisterHashesPassword(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	_, _, _, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	saved := store.users["bob@example.com"]
	require.NotEqual(t, []byte("password123"), saved.PassHash)
	require.NoError(t, bcrypt.CompareHashAndPassword(saved.PassHash, []byte("password123")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	_, _, _, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	_, _, _, err = svc.Register(context.Background(), "bob@example.com", "otherpassword", models.RoleUser)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterAdminAllowList(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	_, _, _, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleAdmin)
	require.ErrorIs(t, err, ErrAdminNotAllowed)
	require.Empty(t, store.users)
	require.Empty(t, store.refreshTokens)

	user, _, _, err := svc.Register(context.Background(), "admin@example.com", "password123", models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, user.Role)
}

func TestLogin(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	registered, _, _, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	user, accessToken, _, err := svc.Login(context.Background(), "bob@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)

	uid, err := jwt.ParseToken(accessToken, "access-secret")
	require.NoError(t, err)
	require.Equal(t, registered.ID, uid)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	_, _, _, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "bob@example.com", "wrongpassword")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuth(newFakeStore())

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	user, _, refreshToken, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	accessToken, err := svc.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)

	uid, err := jwt.ParseToken(accessToken, "access-secret")
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)

	// the stored token is not rotated
	require.Contains(t, store.refreshTokens, refreshToken)
}

func TestRefreshAfterLogout(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	_, _, refreshToken, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), refreshToken))

	// signature is still valid, but the token is gone from the store
	_, err = svc.Refresh(context.Background(), refreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc := newTestAuth(newFakeStore())

	_, err := svc.Refresh(context.Background(), "never-issued")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshExpiredToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	expired, err := jwt.NewRefreshToken(1, "refresh-secret", -time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.SaveRefreshToken(context.Background(), expired, 1))

	_, err = svc.Refresh(context.Background(), expired)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuth(store)

	_, _, refreshToken, err := svc.Register(context.Background(), "bob@example.com", "password123", models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), refreshToken))
	require.NoError(t, svc.Logout(context.Background(), refreshToken))
	require.Empty(t, store.refreshTokens)
}
