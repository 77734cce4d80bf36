package pgstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/metrics"
)

// capsuleRow is the GORM model backing one capsule. Data holds the full
// storewire.WireCapsule JSON encoding; ownership/subject/memories all live
// inside it rather than as separate columns, since the domain model's
// tagged unions resist a relational decomposition.
type capsuleRow struct {
	CapsuleID  string `gorm:"primaryKey;column:capsule_id"`
	SubjectKey string `gorm:"uniqueIndex;column:subject_key"`
	Data       []byte `gorm:"column:data"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (capsuleRow) TableName() string { return "capsules" }

type memoryIndexRow struct {
	MemoryID  string `gorm:"primaryKey;column:memory_id"`
	CapsuleID string `gorm:"column:capsule_id;index"`
}

func (memoryIndexRow) TableName() string { return "memory_index" }

type blobRefRow struct {
	Locator string `gorm:"primaryKey;column:locator"`
	Count   int    `gorm:"column:count"`
}

func (blobRefRow) TableName() string { return "blob_refs" }

func allModels() []any {
	return []any{&capsuleRow{}, &memoryIndexRow{}, &blobRefRow{}}
}

// Store is a GORM-backed CapsuleStore.
type Store struct {
	db           *gorm.DB
	inlineBudget uint64
	extraReaders capsulestore.ExtraReaders
	metrics      *metrics.CapsuleStoreMetrics
}

// SetMetrics installs the Prometheus instrumentation this store reports to.
func (s *Store) SetMetrics(m *metrics.CapsuleStoreMetrics) { s.metrics = m }

// New opens (and auto-migrates) a pgstore.Store per config.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	return &Store{db: db, inlineBudget: config.InlineBudget}, nil
}

// DB returns the underlying GORM handle, for testcontainers-backed
// conformance tests to inspect table state directly.
func (s *Store) DB() *gorm.DB { return s.db }

// SetExtraReaders installs SharingCore's membership check.
func (s *Store) SetExtraReaders(fn capsulestore.ExtraReaders) { s.extraReaders = fn }

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

