package user

import (
	"context"

	"blog_api/internal/models"
)

type UserStore interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
	Users(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateUser(ctx context.Context, u models.User) error
	DeleteUser(ctx context.Context, id int64) error
}
