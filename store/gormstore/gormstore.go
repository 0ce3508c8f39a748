// Package gormstore implements store.Store on top of GORM. The same code
// serves the hosted postgres deployment, the on-disk sqlite one and the
// in-memory sqlite database used for development and tests. The sqlite
// dialect is pure Go, so no cgo toolchain is needed.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"metahire/models"
	"metahire/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db      *gorm.DB
	schemas *sync.Map
}

// PoolConfig mirrors the connection pool knobs exposed through config.
type PoolConfig struct {
	MaxIdleConns int
	MaxOpenConns int
}

// OpenPostgres connects to a postgres database.
func OpenPostgres(dsn string, pool PoolConfig, logLevel logger.LogLevel) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return New(db), nil
}

// OpenSQLite opens (or creates) a sqlite database at path. Use ":memory:"
// for a private in-memory database.
func OpenSQLite(path string, logLevel logger.LogLevel) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps an in-memory
	// database alive for the lifetime of the store.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)
	return New(db), nil
}

// OpenMemory opens a private, migrated in-memory database. Its contents are
// dropped on Close.
func OpenMemory(ctx context.Context, logLevel logger.LogLevel) (*Store, error) {
	s, err := OpenSQLite(memoryPath, logLevel)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

const memoryPath = ":memory:"

func sqliteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)"
	if path != memoryPath {
		pragmas += "&_pragma=busy_timeout(5000)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

// New wraps an already opened connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db, schemas: &sync.Map{}}
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	return nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Profiles() store.Repository[models.Profile] {
	return &repository[models.Profile]{db: s.db, schemas: s.schemas}
}

func (s *Store) Accounts() store.Repository[models.Account] {
	return &repository[models.Account]{db: s.db, schemas: s.schemas}
}

func (s *Store) Campaigns() store.Repository[models.Campaign] {
	return &repository[models.Campaign]{db: s.db, schemas: s.schemas}
}

func (s *Store) Assignments() store.Repository[models.CampaignAssignment] {
	return &repository[models.CampaignAssignment]{db: s.db, schemas: s.schemas}
}

func (s *Store) Leads() store.Repository[models.Lead] {
	return &repository[models.Lead]{db: s.db, schemas: s.schemas}
}

func (s *Store) Customers() store.Repository[models.Customer] {
	return &repository[models.Customer]{db: s.db, schemas: s.schemas}
}

func (s *Store) Payments() store.Repository[models.Payment] {
	return &repository[models.Payment]{db: s.db, schemas: s.schemas}
}

func (s *Store) History() store.Repository[models.LeadStatusHistory] {
	return &repository[models.LeadStatusHistory]{db: s.db, schemas: s.schemas}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, schemas: s.schemas})
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", store.ErrReference, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case strings.Contains(msg, "foreign key"):
		return fmt.Errorf("%w: %v", store.ErrReference, err)
	}
	return err
}
