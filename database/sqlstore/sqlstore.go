package sqlstore

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"sync"

	"github.com/cryptonaira/nairadesk/database"
	"github.com/cryptonaira/nairadesk/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // Import postgres dialect
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // Import sqlite dialect
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	dbName = "nairadesk.db"
)

// DB is an implementation of the database.Store interface which keeps
// documents in a single table through the gorm ORM. Sqlite is used by
// default and postgres when given a postgres URL.
type DB struct {
	db  *gorm.DB
	mtx sync.RWMutex
}

var _ database.Store = (*DB)(nil)

// Open opens the store described by databaseURL. An empty URL opens a
// sqlite database in dataDir. A postgres:// or postgresql:// URL opens a
// postgres database. Anything else is treated as a sqlite file path.
func Open(dataDir, databaseURL string) (*DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch {
	case databaseURL == "":
		db, err = gorm.Open("sqlite3", path.Join(dataDir, dbName))
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		conn, perr := pq.ParseURL(databaseURL)
		if perr != nil {
			return nil, errors.Wrap(perr, "parse postgres url")
		}
		db, err = gorm.Open("postgres", conn)
	default:
		db, err = gorm.Open("sqlite3", strings.TrimPrefix(databaseURL, "sqlite://"))
	}
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return newDB(db)
}

// NewMemoryDB returns a store backed by an in-memory sqlite database.
func NewMemoryDB() (*DB, error) {
	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.DB().SetMaxOpenConns(1)
	return newDB(db)
}

func newDB(db *gorm.DB) (*DB, error) {
	s := &DB{db: db}
	err := s.update(func(tx *gorm.DB) error {
		return tx.AutoMigrate(&models.Document{}).Error
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return s, nil
}

// Write serializes doc as JSON and saves it at path.
func (s *DB) Write(ctx context.Context, p string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encode %s", p)
	}
	return s.update(func(tx *gorm.DB) error {
		return tx.Save(&models.Document{
			Path: database.CleanPath(p),
			Body: body,
		}).Error
	})
}

// Read decodes the document at path into out.
func (s *DB) Read(ctx context.Context, p string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var doc models.Document
	err := s.view(func(tx *gorm.DB) error {
		return tx.Where("path = ?", database.CleanPath(p)).First(&doc).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return database.ErrNotFound
	} else if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(doc.Body, out), "decode %s", p)
}

// Close cleanly shuts down the database. It will block until all
// database transactions have been finalized.
func (s *DB) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.db.Close()
}

// view invokes the passed function with read access to the database.
func (s *DB) view(fn func(tx *gorm.DB) error) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return fn(s.db)
}

// update invokes the passed function in the context of a managed
// read-write transaction. Any errors returned from the user-supplied
// function will cause the transaction to be rolled back. Otherwise,
// the transaction is committed when the function returns nil.
func (s *DB) update(fn func(tx *gorm.DB) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx := s.db.Begin()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
