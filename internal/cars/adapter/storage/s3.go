package storage

import (
	"context"
	"fmt"
	"time"

	"car-listing/internal/cars/config"
	"car-listing/internal/cars/domain/model"
	"car-listing/internal/cars/domain/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Replaced in tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// S3Store keeps car images in an S3 bucket through aws-sdk-go-v2.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewS3Store builds a path-style client for the configured endpoint.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.StorageRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.EndpointURL()
	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.StorageBucket,
		baseURL: cfg.PublicBaseURL(),
		now:     time.Now,
	}, nil
}

// Upload stores the image under a fresh key.
func (s *S3Store) Upload(ctx context.Context, img model.ImageUpload) (model.Image, error) {
	key := ObjectKey(s.now().UTC(), img.Filename, img.ContentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          img.Reader(),
		ContentLength: aws.Int64(img.Size()),
		ContentType:   aws.String(img.ContentType),
	})
	if err != nil {
		return model.Image{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return model.Image{PublicID: key, URL: ObjectURL(s.baseURL, s.bucket, key)}, nil
}

// Delete removes the object.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

var _ repository.AttachmentStore = (*S3Store)(nil)
