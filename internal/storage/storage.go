package storage

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrBlogNotFound         = errors.New("blog not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrLikeExists           = errors.New("like already exists")
	ErrLikeNotFound         = errors.New("like not found")
)
