package storage

import (
	"context"
	"errors"
	"testing"

	"car-listing/internal/cars/config"
	"car-listing/internal/cars/domain/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAWSConfig applies the load options without reading the environment
// or shared config files.
func stubAWSConfig(t *testing.T) {
	t.Helper()
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}
}

func TestS3Store_UploadAndDelete(t *testing.T) {
	stubAWSConfig(t)
	fake, srv := newFakeS3(t)
	ctx := context.Background()

	store, err := NewS3Store(ctx, storeConfig(srv.URL, config.ProviderS3))
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	img, err := store.Upload(ctx, model.NewImageUpload("civic.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/car-images/"+img.PublicID, img.URL)

	path := "/car-images/" + img.PublicID
	assert.True(t, fake.has(path))
	assert.Equal(t, "image/png", fake.contentType(path))

	require.NoError(t, store.Delete(ctx, img.PublicID))
	assert.False(t, fake.has(path))
}

func TestS3Store_DeleteDenied(t *testing.T) {
	stubAWSConfig(t)
	fake, srv := newFakeS3(t)

	store, err := NewS3Store(context.Background(), storeConfig(srv.URL, config.ProviderS3))
	require.NoError(t, err)

	fake.setDeny("/cars/")
	err = store.Delete(context.Background(), "cars/2024/01/x.png")
	assert.Error(t, err)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}

	_, err := NewS3Store(context.Background(), storeConfig("localhost:9000", config.ProviderS3))
	assert.ErrorContains(t, err, "load aws config")
}
