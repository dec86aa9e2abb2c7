package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

type User struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	PassHash    []byte      `json:"-"`
	Role        string      `json:"role"`
	FirstName   string      `json:"firstName,omitempty"`
	LastName    string      `json:"lastName,omitempty"`
	SocialLinks SocialLinks `json:"socialLinks"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type SocialLinks struct {
	Website   string `json:"website,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	X         string `json:"x,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// RefreshToken is the server-side record gating refresh-token use.
// Deleting the row revokes the token even while its signature is still
// valid.
type RefreshToken struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Blog struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	BannerURL     string    `json:"bannerURL,omitempty"`
	Status        string    `json:"status"`
	AuthorID      int64     `json:"authorId"`
	LikesCount    int64     `json:"likesCount"`
	CommentsCount int64     `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        int64     `json:"id"`
	BlogID    int64     `json:"blogId"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Like struct {
	ID     int64 `json:"id"`
	BlogID int64 `json:"blogId"`
	UserID int64 `json:"userId"`
}

// Event is published to the message broker on notable domain actions.
type Event struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	BlogID   int64  `json:"blog_id,omitempty"`
	Username string `json:"username,omitempty"`
}
