package config

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/memvault/memvault/pkg/blobstore"
	"github.com/memvault/memvault/pkg/blobstore/fsstore"
	blobmemory "github.com/memvault/memvault/pkg/blobstore/memstore"
	"github.com/memvault/memvault/pkg/blobstore/s3store"
	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/capsulestore/badgerstore"
	capsulememory "github.com/memvault/memvault/pkg/capsulestore/memstore"
	"github.com/memvault/memvault/pkg/capsulestore/pgstore"
)

// CreateCapsuleStore builds the CapsuleStore backend selected by
// cfg.Backend. The returned store has no ExtraReaders hook installed yet;
// callers wire SharingCore's membership check in afterward via the
// backend-specific SetExtraReaders method each implementation exposes.
func CreateCapsuleStore(cfg CapsuleStoreConfig) (capsulestore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return capsulememory.New(), nil
	case "badger":
		db, err := badger.Open(badger.DefaultOptions(cfg.Badger.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open badger database: %w", err)
		}
		return badgerstore.New(db, uint64(cfg.InlineBudget)), nil
	case "postgres":
		pgCfg := &pgstore.Config{
			Type: pgstore.DatabaseType(cfg.Postgres.Type),
			SQLite: pgstore.SQLiteConfig{
				Path: cfg.Postgres.SQLitePath,
			},
			Postgres: pgstore.PostgresConfig{
				Host:         cfg.Postgres.Host,
				Port:         cfg.Postgres.Port,
				Database:     cfg.Postgres.Database,
				User:         cfg.Postgres.User,
				Password:     cfg.Postgres.Password,
				SSLMode:      cfg.Postgres.SSLMode,
				MaxOpenConns: cfg.Postgres.MaxOpenConns,
				MaxIdleConns: cfg.Postgres.MaxIdleConns,
			},
			InlineBudget: uint64(cfg.InlineBudget),
		}
		return pgstore.New(pgCfg)
	default:
		return nil, fmt.Errorf("unknown capsule store backend: %q", cfg.Backend)
	}
}

// CreateBlobRegion builds the blob-sink Region backend selected by
// cfg.Backend.
func CreateBlobRegion(ctx context.Context, cfg BlobStoreConfig) (blobstore.Region, error) {
	switch cfg.Backend {
	case "memory":
		return blobmemory.NewRegion(0), nil
	case "fs":
		if cfg.FS.BasePath == "" {
			return nil, fmt.Errorf("filesystem blob store requires fs.base_path to be set")
		}
		return fsstore.Open(cfg.FS.BasePath, int64(cfg.FS.RegionSize))
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("S3 blob store requires s3.bucket to be set")
		}
		client, err := s3store.NewClientFromConfig(ctx, s3store.ClientConfig{
			Region:     cfg.S3.Region,
			Endpoint:   cfg.S3.Endpoint,
			MaxRetries: cfg.S3.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure S3 client: %w", err)
		}
		return s3store.NewRegion(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown blob store backend: %q", cfg.Backend)
	}
}
