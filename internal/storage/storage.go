// Package storage implements the relational persistence layer on SQLite.
//
// One Store serves all three persistence contracts: content records and
// chunks, user preferences, and generated digests. Each exported method is
// one transaction; the schema is created on open.
package storage

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store is the SQLite-backed implementation of the persistence contracts.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New opens the database at dsn and ensures the schema exists.
func New(dsn string, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Serialized access avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	logger.Info("storage initialized", zap.String("dsn", dsn))
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// builder is the squirrel statement builder with SQLite placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func (s *Store) initSchema() error {
	for _, ddl := range schema {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return nil
}
