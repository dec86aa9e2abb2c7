package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog_api/internal/config"
	"blog_api/internal/models"
	"blog_api/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// * dsn формирует строку подключения к базе данных.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}

const userColumns = `id, username, email, password_hash, role,
	COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(website, ''), COALESCE(facebook, ''), COALESCE(instagram, ''),
	COALESCE(x, ''), COALESCE(youtube, ''),
	created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PassHash,
		&u.Role,
		&u.FirstName,
		&u.LastName,
		&u.SocialLinks.Website,
		&u.SocialLinks.Facebook,
		&u.SocialLinks.Instagram,
		&u.SocialLinks.X,
		&u.SocialLinks.YouTube,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *PostgresRepo) SaveUser(ctx context.Context, username, email string, passHash []byte, role string) (int64, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	var id int64

	err := r.pool.QueryRow(ctx, query, username, email, string(passHash), role).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`

	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

func (r *PostgresRepo) UserByID(ctx context.Context, id int64) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

// UserRole fetches only the current role, the per-request read the
// authorization middleware depends on.
func (r *PostgresRepo) UserRole(ctx context.Context, id int64) (string, error) {
	query := `SELECT role FROM users WHERE id = $1;`

	var role string
	err := r.pool.QueryRow(ctx, query, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrUserNotFound
		}

		return "", err
	}

	return role, nil
}

func (r *PostgresRepo) Users(ctx context.Context, limit, offset int) ([]models.User, error) {
	const op = "storage.postgres.Users"

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *PostgresRepo) UpdateUser(ctx context.Context, u models.User) error {
	const op = "storage.postgres.UpdateUser"

	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3,
		    first_name = $4, last_name = $5,
		    website = $6, facebook = $7, instagram = $8, x = $9, youtube = $10,
		    updated_at = NOW()
		WHERE id = $11;
	`

	_, err := r.pool.Exec(ctx, query,
		u.Username,
		u.Email,
		string(u.PassHash),
		u.FirstName,
		u.LastName,
		u.SocialLinks.Website,
		u.SocialLinks.Facebook,
		u.SocialLinks.Instagram,
		u.SocialLinks.X,
		u.SocialLinks.YouTube,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteUser removes the user together with dependent rows (refresh
// tokens, blogs, comments, likes cascade at the schema level).
func (r *PostgresRepo) DeleteUser(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1;`

	_, err := r.pool.Exec(ctx, query, id)

	return err
}

func (r *PostgresRepo) SaveRefreshToken(ctx context.Context, token string, userID int64) error {
	const query = `
		INSERT INTO refresh_tokens (token, user_id)
		VALUES ($1, $2);
	`

	_, err := r.pool.Exec(ctx, query, token, userID)
	return err
}

// RefreshTokenExists is the revocation gate: a token missing here is
// invalid regardless of its signature.
func (r *PostgresRepo) RefreshTokenExists(ctx context.Context, token string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token = $1);`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, token).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *PostgresRepo) RefreshToken(ctx context.Context, token string) (models.RefreshToken, error) {
	const query = `
		SELECT id, token, user_id, created_at
		FROM refresh_tokens
		WHERE token = $1;
	`

	var rt models.RefreshToken
	err := r.pool.QueryRow(ctx, query, token).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, storage.ErrRefreshTokenNotFound
		}

		return models.RefreshToken{}, err
	}

	return rt, nil
}

func (r *PostgresRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1;`

	_, err := r.pool.Exec(ctx, query, token)

	return err
}
