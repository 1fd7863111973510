package upload

import (
	"booknet/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// Storage persists uploaded files and returns their public URL
type Storage interface {
	Save(ctx context.Context, folder, filename string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, folder, filename string) (bool, error)
}

// NewStorage builds the driver selected by UPLOAD_DRIVER
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch strings.ToLower(cfg.Upload.Driver) {
	case "", "disk":
		return NewDiskStorage(cfg.Upload.Dir)
	case "s3":
		return NewMinIOStorage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.Upload.Driver)
	}
}

// DiskStorage writes files under a root directory served at /uploads
type DiskStorage struct {
	root string
}

func NewDiskStorage(root string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{root: root}, nil
}

// Root is the directory served as /uploads
func (d *DiskStorage) Root() string {
	return d.root
}

func (d *DiskStorage) Save(_ context.Context, folder, filename string, r io.Reader, _ int64, _ string) (string, error) {
	dir := filepath.Join(d.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, filepath.Base(filename)), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return FileURL(folder, filepath.Base(filename)), nil
}

// Delete removes a file; false when it did not exist
func (d *DiskStorage) Delete(_ context.Context, folder, filename string) (bool, error) {
	err := os.Remove(filepath.Join(d.root, filepath.Base(folder), filepath.Base(filename)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MinIOStorage stores files as objects <folder>/<filename> in one bucket
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

func NewMinIOStorage(ctx context.Context, cfg config.S3Config) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logrus.WithField("bucket", cfg.Bucket).Info("upload bucket created")
	}
	return &MinIOStorage{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinIOStorage) Save(ctx context.Context, folder, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := folder + "/" + filename
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	logrus.WithFields(logrus.Fields{"bucket": info.Bucket, "key": info.Key, "size": info.Size}).Debug("object stored")
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key), nil
}

func (s *MinIOStorage) Delete(ctx context.Context, folder, filename string) (bool, error) {
	key := folder + "/" + filename
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, err
	}
	return true, nil
}
