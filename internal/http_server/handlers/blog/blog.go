package blog

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"blog_api/internal/models"
)

type BlogStore interface {
	SaveBlog(ctx context.Context, b models.Blog) (models.Blog, error)
	BlogByID(ctx context.Context, id int64) (models.Blog, error)
	BlogBySlug(ctx context.Context, slug string) (models.Blog, error)
	Blogs(ctx context.Context, publishedOnly bool, authorID int64, limit, offset int) ([]models.Blog, error)
	UpdateBlog(ctx context.Context, b models.Blog) (models.Blog, error)
	DeleteBlog(ctx context.Context, id int64) error
}

type RoleProvider interface {
	UserRole(ctx context.Context, userID int64) (string, error)
}

type BannerUploader interface {
	UploadBanner(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.Event) error
}

// bannerFile pulls the optional banner_image part out of a multipart
// request. A JSON request simply has no banner.
func bannerFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, nil, nil
	}

	file, header, err := r.FormFile("banner_image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return file, header, nil
}

// canModify is the author-or-admin ownership rule shared by update and
// delete.
func canModify(blog models.Blog, userID int64, role string) bool {
	return blog.AuthorID == userID || role == models.RoleAdmin
}
