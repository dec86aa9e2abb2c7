package postgres

import (
	"context"
	"errors"
	"fmt"

	"blog_api/internal/models"
	"blog_api/internal/storage"

	"github.com/jackc/pgx/v5"
)

const blogColumns = `id, title, slug, content, COALESCE(banner_url, ''), status,
	author_id, likes_count, comments_count, created_at, updated_at`

func scanBlog(row pgx.Row) (models.Blog, error) {
	var b models.Blog
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Slug,
		&b.Content,
		&b.BannerURL,
		&b.Status,
		&b.AuthorID,
		&b.LikesCount,
		&b.CommentsCount,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

func (r *PostgresRepo) SaveBlog(ctx context.Context, b models.Blog) (models.Blog, error) {
	const op = "storage.postgres.SaveBlog"

	query := `
		INSERT INTO blogs (title, slug, content, banner_url, status, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + blogColumns + `;
	`

	saved, err := scanBlog(r.pool.QueryRow(ctx, query,
		b.Title, b.Slug, b.Content, b.BannerURL, b.Status, b.AuthorID))
	if err != nil {
		return models.Blog{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

func (r *PostgresRepo) BlogByID(ctx context.Context, id int64) (models.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE id = $1;`

	b, err := scanBlog(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Blog{}, storage.ErrBlogNotFound
		}

		return models.Blog{}, err
	}

	return b, nil
}

func (r *PostgresRepo) BlogBySlug(ctx context.Context, slug string) (models.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE slug = $1;`

	b, err := scanBlog(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Blog{}, storage.ErrBlogNotFound
		}

		return models.Blog{}, err
	}

	return b, nil
}

// Blogs lists blogs newest first. publishedOnly hides drafts from
// non-admin readers; authorID filters by author when non-zero.
func (r *PostgresRepo) Blogs(ctx context.Context, publishedOnly bool, authorID int64, limit, offset int) ([]models.Blog, error) {
	const op = "storage.postgres.Blogs"

	query := `SELECT ` + blogColumns + ` FROM blogs WHERE 1=1`
	args := []any{}

	if publishedOnly {
		args = append(args, models.BlogStatusPublished)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if authorID != 0 {
		args = append(args, authorID)
		query += fmt.Sprintf(" AND author_id = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d;", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	blogs := make([]models.Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		blogs = append(blogs, b)
	}

	return blogs, rows.Err()
}

func (r *PostgresRepo) UpdateBlog(ctx context.Context, b models.Blog) (models.Blog, error) {
	const op = "storage.postgres.UpdateBlog"

	query := `
		UPDATE blogs
		SET title = $1, content = $2, banner_url = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + blogColumns + `;
	`

	updated, err := scanBlog(r.pool.QueryRow(ctx, query,
		b.Title, b.Content, b.BannerURL, b.Status, b.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Blog{}, storage.ErrBlogNotFound
		}

		return models.Blog{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (r *PostgresRepo) DeleteBlog(ctx context.Context, id int64) error {
	query := `DELETE FROM blogs WHERE id = $1;`

	_, err := r.pool.Exec(ctx, query, id)

	return err
}

// SaveComment inserts the comment and bumps the blog's comment counter
// in one transaction so the counter never drifts.
func (r *PostgresRepo) SaveComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	const op = "storage.postgres.SaveComment"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO comments (blog_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, blog_id, user_id, content, created_at;
	`

	var saved models.Comment
	err = tx.QueryRow(ctx, query, c.BlogID, c.UserID, c.Content).
		Scan(&saved.ID, &saved.BlogID, &saved.UserID, &saved.Content, &saved.CreatedAt)
	if err != nil {
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE blogs SET comments_count = comments_count + 1 WHERE id = $1;`, c.BlogID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return models.Comment{}, storage.ErrBlogNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

func (r *PostgresRepo) CommentByID(ctx context.Context, id int64) (models.Comment, error) {
	query := `SELECT id, blog_id, user_id, content, created_at FROM comments WHERE id = $1;`

	var c models.Comment
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.BlogID, &c.UserID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, storage.ErrCommentNotFound
		}

		return models.Comment{}, err
	}

	return c, nil
}

func (r *PostgresRepo) CommentsByBlog(ctx context.Context, blogID int64) ([]models.Comment, error) {
	const op = "storage.postgres.CommentsByBlog"

	query := `
		SELECT id, blog_id, user_id, content, created_at
		FROM comments
		WHERE blog_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, blogID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (r *PostgresRepo) DeleteComment(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteComment"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	var blogID int64
	err = tx.QueryRow(ctx, `DELETE FROM comments WHERE id = $1 RETURNING blog_id;`, id).Scan(&blogID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrCommentNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE blogs SET comments_count = comments_count - 1 WHERE id = $1;`, blogID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return tx.Commit(ctx)
}

// SaveLike inserts the like and bumps the counter atomically. The
// unique (blog_id, user_id) index makes a second like fail with
// ErrLikeExists.
func (r *PostgresRepo) SaveLike(ctx context.Context, blogID, userID int64) (int64, error) {
	const op = "storage.postgres.SaveLike"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO likes (blog_id, user_id) VALUES ($1, $2);`, blogID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrLikeExists
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var likesCount int64
	err = tx.QueryRow(ctx,
		`UPDATE blogs SET likes_count = likes_count + 1 WHERE id = $1 RETURNING likes_count;`,
		blogID).Scan(&likesCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrBlogNotFound
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return likesCount, nil
}

func (r *PostgresRepo) DeleteLike(ctx context.Context, blogID, userID int64) (int64, error) {
	const op = "storage.postgres.DeleteLike"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM likes WHERE blog_id = $1 AND user_id = $2;`, blogID, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, storage.ErrLikeNotFound
	}

	var likesCount int64
	err = tx.QueryRow(ctx,
		`UPDATE blogs SET likes_count = likes_count - 1 WHERE id = $1 RETURNING likes_count;`,
		blogID).Scan(&likesCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrBlogNotFound
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return likesCount, nil
}
