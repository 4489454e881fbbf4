package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kb-service/internal/config"
	"kb-service/internal/query"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Store is the transaction provider over the graph tables.
type Store struct {
	db      *sql.DB
	dialect query.Dialect
}

// Open connects to the configured driver, applies pool settings and pings.
func Open(ctx context.Context, cfg config.DB) (*Store, error) {
	dsn := cfg.URL
	if cfg.Driver == "sqlite" {
		dsn = cfg.URL + "?" + sqlitePragmas
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	log.WithField("driver", cfg.Driver).Info("Connected to the knowledge base database")

	return NewStore(db, query.DialectFor(cfg.Driver)), nil
}

func NewStore(db *sql.DB, dialect query.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) Dialect() query.Dialect {
	return s.dialect
}

// Builder starts a statement in the store's dialect.
func (s *Store) Builder() *query.Builder {
	return query.New(s.dialect)
}

// BeginWrite opens a write transaction. Callers defer Rollback, which is a
// no-op once Commit succeeded.
func (s *Store) BeginWrite(ctx context.Context) (*SafeTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SafeTx{tx: tx}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) query(ctx context.Context, stmt query.Statement) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
}

func (s *Store) queryRow(ctx context.Context, stmt query.Statement) *sql.Row {
	return s.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...)
}
