package entrypoint

import (
	"context"
	"fmt"
	"log"

	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/config"
	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/database/catalog"
	"github.com/mrlokans/readsync/internal/library"
	"github.com/mrlokans/readsync/internal/storage"
	"github.com/mrlokans/readsync/internal/storage/providers/local"
	"github.com/mrlokans/readsync/internal/storage/providers/s3"
)

// NewBackend builds the placement backend selected by the configuration.
func NewBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageLocal, "":
		return local.New(cfg.Library.Dir)
	case config.StorageS3:
		if cfg.Storage.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 storage backend requires S3_BUCKET")
		}
		client, err := s3.NewClient(ctx, s3.Config{
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		return s3.New(client, cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// OpenLibrary wires the catalog and the configured backend into a library
// repository.
func OpenLibrary(ctx context.Context, cfg *config.Config, db *database.Database) (*library.Repository, error) {
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo, err := library.NewRepository(catalog.NewRepository(db.DB), backend, library.Options{
		ScratchDir:  cfg.Library.ScratchDir,
		MaxFileSize: cfg.Library.MaxFileSizeBytes(),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Library backend: %s", backend.Name())
	return repo, nil
}

// NewSessionStore returns the session store selected by the configuration.
func NewSessionStore(cfg *config.Config, db *database.Database) (scs.Store, error) {
	switch cfg.Auth.SessionStore {
	case config.SessionStoreMemory, "":
		return auth.NewMemoryStore(), nil
	case config.SessionStoreSQLite:
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db for sessions: %w", err)
		}
		return auth.NewSQLiteStore(sqlDB)
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Auth.SessionStore)
}
