package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docgateway/internal/config"
)

// MinIO is a TransientStore backed by an S3-compatible bucket, for deployments where the
// gateway and the remote service share a bucket instead of a filesystem.
// It is safe for concurrent use by multiple goroutines.
type MinIO struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ TransientStore = (*MinIO)(nil)

// NewMinIO creates a new S3-compatible transient store backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (*MinIO, error) {
	if err := validateMinIOConfig(cfg); err != nil {
		return nil, err
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &MinIO{client: cli, bucket: cfg.Bucket, prefix: normalizePrefix(cfg.Prefix)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

func validateMinIOConfig(cfg config.MinIOConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("minio bucket is required")
	}
	return nil
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func (m *MinIO) key(name string) string { return m.prefix + name }

// Write uploads the content. S3 has no create-exclusive primitive, so collisions are
// prevented by checking for the key first; stored names carry a random suffix anyway.
func (m *MinIO) Write(ctx context.Context, name string, r io.Reader, opt WriteOptions) (Object, error) {
	if err := ValidateName(name); err != nil {
		return Object{}, err
	}
	if _, err := m.Stat(ctx, name); err == nil {
		return Object{}, ErrExists
	}

	size := opt.Size
	if size == 0 {
		size = -1
	}
	info, err := m.client.PutObject(ctx, m.bucket, m.key(name), r, size, minio.PutObjectOptions{
		ContentType:  opt.ContentType,
		UserMetadata: map[string]string{"original-filename": opt.OriginalName},
	})
	if err != nil {
		return Object{}, fmt.Errorf("put %s: %w", name, err)
	}
	return Object{
		Name:         name,
		Path:         m.Path(name),
		Size:         info.Size,
		ContentType:  opt.ContentType,
		LastModified: time.Now(), // PutObject doesn't return LastModified
	}, nil
}

// Delete removes an object by name. Removing a missing key is a no-op in S3.
func (m *MinIO) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := m.client.RemoveObject(ctx, m.bucket, m.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// List enumerates objects directly under the prefix.
func (m *MinIO) List(ctx context.Context) ([]Object, error) {
	var objs []Object
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: m.prefix}) {
		if info.Err != nil {
			return objs, fmt.Errorf("list objects: %w", info.Err)
		}
		name := strings.TrimPrefix(info.Key, m.prefix)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		objs = append(objs, Object{
			Name:         name,
			Path:         m.Path(name),
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
	}
	return objs, nil
}

// Stat fetches object metadata or ErrNotFound.
func (m *MinIO) Stat(ctx context.Context, name string) (Object, error) {
	if err := ValidateName(name); err != nil {
		return Object{}, err
	}
	st, err := m.client.StatObject(ctx, m.bucket, m.key(name), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return Object{
		Name:         name,
		Path:         m.Path(name),
		Size:         st.Size,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
	}, nil
}

// Path returns the s3:// URI of name.
func (m *MinIO) Path(name string) string {
	return fmt.Sprintf("s3://%s/%s", m.bucket, m.key(name))
}

// Ping checks that the bucket is reachable.
func (m *MinIO) Ping(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
