package storage

import (
	"context"
	"fmt"

	"car-listing/internal/cars/config"
	"car-listing/internal/cars/domain/repository"
)

// New returns the backend named by cfg.StorageProvider.
func New(ctx context.Context, cfg *config.Config) (repository.AttachmentStore, error) {
	switch cfg.StorageProvider {
	case config.ProviderS3:
		store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ProviderMinio, "":
		store, err := NewMinioStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}
