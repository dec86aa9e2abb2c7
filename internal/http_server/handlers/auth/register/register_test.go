package register

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blog_api/internal/auth"
	"blog_api/internal/config"
	resp "blog_api/internal/lib/api/response"
	"blog_api/internal/models"
	"blog_api/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
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
	s.users[email] = models.User{ID: id, Username: username, Email: email, PassHash: passHash, Role: role}

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

type fakePublisher struct {
	events []models.Event
}

func (p *fakePublisher) PublishEvent(_ context.Context, event models.Event) error {
	p.events = append(p.events, event)
	return nil
}

func newHandler(store *fakeStore, events EventPublisher) http.HandlerFunc {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Env:         "local",
		AdminEmails: []string{"admin@example.com"},
		Tokens: config.Tokens{
			AccessTokenSecret:  "access-secret",
			RefreshTokenSecret: "refresh-secret",
			AccessTokenTTL:     15 * time.Minute,
			RefreshTokenTTL:    168 * time.Hour,
		},
	}

	svc := auth.New(log, store, store, cfg)

	return New(log, validator.New(), svc, events, cfg.Tokens.RefreshTokenTTL, false)
}

func doRegister(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")

	h.ServeHTTP(w, r)

	return w
}

func refreshCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	return nil
}

func TestRegisterSuccess(t *testing.T) {
	store := newFakeStore()
	events := &fakePublisher{}
	h := newHandler(store, events)

	w := doRegister(t, h, Request{Email: "bob@example.com", Password: "password123", Role: "user"})

	require.Equal(t, http.StatusCreated, w.Code)

	var body Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, resp.StatusOK, body.Status)
	require.Equal(t, "bob@example.com", body.User.Email)
	require.Equal(t, "user", body.User.Role)
	require.Contains(t, body.User.Username, "user-")
	require.NotEmpty(t, body.AccessToken)

	cookie := refreshCookie(w.Result())
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.Contains(t, store.refreshTokens, cookie.Value)

	require.Len(t, events.events, 1)
	require.Equal(t, "user_registered", events.events[0].Type)
	require.Equal(t, body.User.Username, events.events[0].Username)
}

func TestRegisterAdminNotAllowed(t *testing.T) {
	store := newFakeStore()
	h := newHandler(store, &fakePublisher{})

	w := doRegister(t, h, Request{Email: "bob@example.com", Password: "password123", Role: "admin"})

	require.Equal(t, http.StatusForbidden, w.Code)

	var body resp.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, resp.CodeAuthorization, body.Code)
	require.Equal(t, "You cannot register as an admin", body.Error)

	require.Empty(t, store.users)
	require.Nil(t, refreshCookie(w.Result()))
}

func TestRegisterAllowListedAdmin(t *testing.T) {
	store := newFakeStore()
	h := newHandler(store, &fakePublisher{})

	w := doRegister(t, h, Request{Email: "admin@example.com", Password: "password123", Role: "admin"})

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "admin", store.users["admin@example.com"].Role)
}

func TestRegisterValidation(t *testing.T) {
	h := newHandler(newFakeStore(), &fakePublisher{})

	w := doRegister(t, h, Request{Email: "not-an-email", Password: "short", Role: "superuser"})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body resp.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, resp.CodeValidation, body.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	h := newHandler(store, &fakePublisher{})

	w := doRegister(t, h, Request{Email: "bob@example.com", Password: "password123", Role: "user"})
	require.Equal(t, http.StatusCreated, w.Code)

	// duplicates are reported as a generic server error, not a 409
	w = doRegister(t, h, Request{Email: "bob@example.com", Password: "password123", Role: "user"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body resp.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, resp.CodeServer, body.Code)
}
