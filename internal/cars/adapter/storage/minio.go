package storage

import (
	"context"
	"fmt"
	"time"

	"car-listing/internal/cars/config"
	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps car images in a MinIO (or any S3 compatible) bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewMinioStore connects to the endpoint and creates the bucket if missing.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.EndpointHost(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.EndpointSecure(),
		Region: cfg.StorageRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.StorageBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.StorageBucket, minio.MakeBucketOptions{Region: cfg.StorageRegion}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.StorageBucket,
		baseURL: cfg.PublicBaseURL(),
		now:     time.Now,
	}, nil
}

// Upload stores the image under a fresh key.
func (s *MinioStore) Upload(ctx context.Context, img model.ImageUpload) (model.Image, error) {
	key := ObjectKey(s.now().UTC(), img.Filename, img.ContentType)
	_, err := s.client.PutObject(ctx, s.bucket, key, img.Reader(), img.Size(), minio.PutObjectOptions{
		ContentType: img.ContentType,
	})
	if err != nil {
		return model.Image{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return model.Image{PublicID: key, URL: ObjectURL(s.baseURL, s.bucket, key)}, nil
}

// Delete removes the object. Removing a missing object is not an error.
func (s *MinioStore) Delete(ctx context.Context, publicID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", publicID, err)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

var _ repository.AttachmentStore = (*MinioStore)(nil)
