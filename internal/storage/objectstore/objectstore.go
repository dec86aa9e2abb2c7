package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"

	"blog_api/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client stores blog banner images in S3-compatible object storage.
type Client struct {
	client *minio.Client
	bucket string
	secure bool
}

func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	const op = "storage.objectstore.New"

	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Minio.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Minio.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Client{
		client: client,
		bucket: cfg.Minio.Bucket,
		secure: cfg.Minio.UseSSL,
	}, nil
}

// UploadBanner stores the image under a fresh key and returns its
// public URL.
func (c *Client) UploadBanner(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	const op = "storage.objectstore.UploadBanner"

	key := path.Join("banners", uuid.NewString())

	_, err := c.client.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	scheme := "http"
	if c.secure {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.client.EndpointURL().Host, c.bucket, key), nil
}
