package comment

import (
	"context"

	"blog_api/internal/models"
)

type CommentStore interface {
	SaveComment(ctx context.Context, c models.Comment) (models.Comment, error)
	CommentByID(ctx context.Context, id int64) (models.Comment, error)
	CommentsByBlog(ctx context.Context, blogID int64) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

type BlogProvider interface {
	BlogByID(ctx context.Context, id int64) (models.Blog, error)
}

type RoleProvider interface {
	UserRole(ctx context.Context, userID int64) (string, error)
}
