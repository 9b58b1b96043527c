package repository

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/needsclan/Gk1/internal/domain"
)

const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Store bundles the repositories of one substrate with the change feed
// their writes publish to.
type Store struct {
	Messages MessageRepository
	Mirrors  MirrorRepository
	Profiles ProfileRepository
	Feed     domain.ChangeFeed

	closeFn func() error
}

func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Open opens the store for the named backend at path.
func Open(backend, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(path)
	case BackendBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

func OpenSQLite(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newGormLogger(os.Stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	db.Exec("PRAGMA journal_mode=WAL")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	// sqlite has a single writer; one connection avoids SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&MessageModel{},
		&MirrorModel{},
		&ProfileModel{},
	)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return newSQLiteStore(db, domain.NewChangeFeed(), NewServerClock(), sqlDB.Close), nil
}

// newGormLogger keeps gorm traces off stdout, which the CLI modes own.
// Missing rows are an expected outcome of lookups and are not logged.
func newGormLogger(w io.Writer) gormlogger.Interface {
	return gormlogger.New(log.New(w, "\r\n", log.LstdFlags), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func newSQLiteStore(db *gorm.DB, feed domain.ChangeFeed, clock Clock, closeFn func() error) *Store {
	return &Store{
		Messages: NewMessageRepository(db, feed, clock),
		Mirrors:  NewMirrorRepository(db, feed, clock),
		Profiles: NewProfileRepository(db),
		Feed:     feed,
		closeFn:  closeFn,
	}
}

func OpenBolt(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	if err := ensureBoltBuckets(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return newBoltStore(db, domain.NewChangeFeed(), NewServerClock()), nil
}

func newBoltStore(db *bolt.DB, feed domain.ChangeFeed, clock Clock) *Store {
	return &Store{
		Messages: NewBoltMessageRepository(db, feed, clock),
		Mirrors:  NewBoltMirrorRepository(db, feed, clock),
		Profiles: NewBoltProfileRepository(db),
		Feed:     feed,
		closeFn:  db.Close,
	}
}
