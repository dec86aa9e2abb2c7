package blog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	resp "blog_api/internal/lib/api/response"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/models"
	"blog_api/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type fakeBlogStore struct {
	blogs  map[int64]models.Blog
	nextID int64

	lastPublishedOnly bool
	lastAuthorID      int64
}

func newFakeBlogStore(blogs ...models.Blog) *fakeBlogStore {
	s := &fakeBlogStore{blogs: make(map[int64]models.Blog), nextID: 1}
	for _, b := range blogs {
		if b.ID >= s.nextID {
			s.nextID = b.ID + 1
		}
		s.blogs[b.ID] = b
	}
	return s
}

func (s *fakeBlogStore) SaveBlog(_ context.Context, b models.Blog) (models.Blog, error) {
	b.ID = s.nextID
	s.nextID++
	s.blogs[b.ID] = b
	return b, nil
}

func (s *fakeBlogStore) BlogByID(_ context.Context, id int64) (models.Blog, error) {
	b, ok := s.blogs[id]
	if !ok {
		return models.Blog{}, storage.ErrBlogNotFound
	}
	return b, nil
}

func (s *fakeBlogStore) BlogBySlug(_ context.Context, slug string) (models.Blog, error) {
	for _, b := range s.blogs {
		if b.Slug == slug {
			return b, nil
		}
	}
	return models.Blog{}, storage.ErrBlogNotFound
}

func (s *fakeBlogStore) Blogs(_ context.Context, publishedOnly bool, authorID int64, limit, offset int) ([]models.Blog, error) {
	s.lastPublishedOnly = publishedOnly
	s.lastAuthorID = authorID

	var page []models.Blog
	for _, b := range s.blogs {
		if publishedOnly && b.Status != models.BlogStatusPublished {
			continue
		}
		if authorID != 0 && b.AuthorID != authorID {
			continue
		}
		page = append(page, b)
	}
	return page, nil
}

func (s *fakeBlogStore) UpdateBlog(_ context.Context, b models.Blog) (models.Blog, error) {
	if _, ok := s.blogs[b.ID]; !ok {
		return models.Blog{}, storage.ErrBlogNotFound
	}
	s.blogs[b.ID] = b
	return b, nil
}

func (s *fakeBlogStore) DeleteBlog(_ context.Context, id int64) error {
	if _, ok := s.blogs[id]; !ok {
		return storage.ErrBlogNotFound
	}
	delete(s.blogs, id)
	return nil
}

type fakeRoles map[int64]string

func (f fakeRoles) UserRole(_ context.Context, userID int64) (string, error) {
	role, ok := f[userID]
	if !ok {
		return "", storage.ErrUserNotFound
	}
	return role, nil
}

type fakeUploader struct{}

func (fakeUploader) UploadBanner(_ context.Context, _ io.Reader, _ int64, _ string) (string, error) {
	return "http://localhost:9000/blog-banners/banners/test", nil
}

type fakePublisher struct {
	events []models.Event
}

func (p *fakePublisher) PublishEvent(_ context.Context, event models.Event) error {
	p.events = append(p.events, event)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func do(router chi.Router, method, target string, body io.Reader, userID int64) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, target, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	r = r.WithContext(authn.WithUserID(r.Context(), userID))

	router.ServeHTTP(w, r)

	return w
}

func TestCreateBlog(t *testing.T) {
	store := newFakeBlogStore()
	events := &fakePublisher{}

	r := chi.NewRouter()
	r.Post("/blogs", NewCreate(testLogger(), validator.New(), store, fakeUploader{}, events))

	body, _ := json.Marshal(CreateRequest{Title: "My First Post", Content: "hello"})
	w := do(r, http.MethodPost, "/blogs", bytes.NewReader(body), 7)

	require.Equal(t, http.StatusCreated, w.Code)

	var res BlogResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Equal(t, resp.StatusOK, res.Status)
	require.Equal(t, "My First Post", res.Blog.Title)
	require.True(t, strings.HasPrefix(res.Blog.Slug, "my-first-post-"))
	require.Equal(t, models.BlogStatusDraft, res.Blog.Status)
	require.Equal(t, int64(7), res.Blog.AuthorID)

	// drafts do not emit a published event
	require.Empty(t, events.events)
}

func TestCreatePublishedBlogEmitsEvent(t *testing.T) {
	store := newFakeBlogStore()
	events := &fakePublisher{}

	r := chi.NewRouter()
	r.Post("/blogs", NewCreate(testLogger(), validator.New(), store, fakeUploader{}, events))

	body, _ := json.Marshal(CreateRequest{Title: "Post", Content: "hello", Status: "published"})
	w := do(r, http.MethodPost, "/blogs", bytes.NewReader(body), 7)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, events.events, 1)
	require.Equal(t, "blog_published", events.events[0].Type)
}

func TestCreateBlogValidation(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/blogs", NewCreate(testLogger(), validator.New(), newFakeBlogStore(), fakeUploader{}, &fakePublisher{}))

	body, _ := json.Marshal(CreateRequest{Title: "", Content: ""})
	w := do(r, http.MethodPost, "/blogs", bytes.NewReader(body), 7)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDraftVisibility(t *testing.T) {
	draft := models.Blog{ID: 1, Slug: "draft-post-abc", Status: models.BlogStatusDraft, AuthorID: 7}
	store := newFakeBlogStore(draft)
	roles := fakeRoles{7: models.RoleUser, 8: models.RoleUser, 9: models.RoleAdmin}

	r := chi.NewRouter()
	r.Get("/blogs/{slug}", NewGet(testLogger(), store, roles))

	// the author sees their own draft
	w := do(r, http.MethodGet, "/blogs/draft-post-abc", nil, 7)
	require.Equal(t, http.StatusOK, w.Code)

	// another user does not
	w = do(r, http.MethodGet, "/blogs/draft-post-abc", nil, 8)
	require.Equal(t, http.StatusForbidden, w.Code)

	var body resp.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, resp.CodeAuthorization, body.Code)

	// an admin does
	w = do(r, http.MethodGet, "/blogs/draft-post-abc", nil, 9)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetUnknownSlug(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/blogs/{slug}", NewGet(testLogger(), newFakeBlogStore(), fakeRoles{7: models.RoleUser}))

	w := do(r, http.MethodGet, "/blogs/nope", nil, 7)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListHidesDraftsFromUsers(t *testing.T) {
	store := newFakeBlogStore(
		models.Blog{ID: 1, Slug: "a", Status: models.BlogStatusPublished, AuthorID: 7},
		models.Blog{ID: 2, Slug: "b", Status: models.BlogStatusDraft, AuthorID: 7},
	)
	roles := fakeRoles{8: models.RoleUser, 9: models.RoleAdmin}

	r := chi.NewRouter()
	r.Get("/blogs", NewList(testLogger(), store, roles))

	w := do(r, http.MethodGet, "/blogs", nil, 8)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, store.lastPublishedOnly)

	var res ListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Len(t, res.Blogs, 1)
	require.Equal(t, 20, res.Limit)

	w = do(r, http.MethodGet, "/blogs", nil, 9)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, store.lastPublishedOnly)
}

func TestListByUserShowsOwnDrafts(t *testing.T) {
	store := newFakeBlogStore(
		models.Blog{ID: 1, Slug: "a", Status: models.BlogStatusDraft, AuthorID: 7},
	)
	roles := fakeRoles{7: models.RoleUser, 8: models.RoleUser}

	r := chi.NewRouter()
	r.Get("/blogs/user/{userID}", NewListByUser(testLogger(), store, roles))

	w := do(r, http.MethodGet, "/blogs/user/7", nil, 7)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, store.lastPublishedOnly)
	require.Equal(t, int64(7), store.lastAuthorID)

	w = do(r, http.MethodGet, "/blogs/user/7", nil, 8)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, store.lastPublishedOnly)
}

func TestDeleteBlogOwnership(t *testing.T) {
	blog := models.Blog{ID: 1, Slug: "a", Status: models.BlogStatusPublished, AuthorID: 7}
	roles := fakeRoles{7: models.RoleUser, 8: models.RoleUser, 9: models.RoleAdmin}

	store := newFakeBlogStore(blog)
	r := chi.NewRouter()
	r.Delete("/blogs/{blogID}", NewDelete(testLogger(), store, roles))

	// a stranger may not delete it
	w := do(r, http.MethodDelete, "/blogs/1", nil, 8)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, store.blogs, int64(1))

	// the author may
	w = do(r, http.MethodDelete, "/blogs/1", nil, 7)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotContains(t, store.blogs, int64(1))

	// an admin may delete someone else's blog
	store = newFakeBlogStore(blog)
	r = chi.NewRouter()
	r.Delete("/blogs/{blogID}", NewDelete(testLogger(), store, roles))

	w = do(r, http.MethodDelete, "/blogs/1", nil, 9)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteUnknownBlog(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/blogs/{blogID}", NewDelete(testLogger(), newFakeBlogStore(), fakeRoles{7: models.RoleUser}))

	w := do(r, http.MethodDelete, "/blogs/99", nil, 7)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteInvalidID(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/blogs/{blogID}", NewDelete(testLogger(), newFakeBlogStore(), fakeRoles{}))

	w := do(r, http.MethodDelete, "/blogs/abc", nil, 7)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
