package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/filex"
	"github.com/dmitrijs2005/wastewatch/internal/server/repositories/users"
)

var ErrUnsupportedDSN = errors.New("unsupported database DSN scheme")

const (
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindMemory   = "memory"
)

// Storage is an opened credential store together with its lifecycle hooks.
type Storage struct {
	Kind  string
	Users users.Repository

	db *sql.DB
}

// Open picks the engine from the DSN scheme:
//
//	postgres://, postgresql://  PostgreSQL through pgx
//	sqlite://<path>             SQLite file (":memory:" also works)
//	memory://                   process memory, nothing persisted
//
// SQL engines are pinged and migrated before Open returns.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	scheme, rest, found := strings.Cut(dsn, "://")
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, redact(dsn))
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return openSQL(ctx, KindPostgres, "pgx", dsn, NewPostgresRepositoryManager())
	case "sqlite", "sqlite3":
		if rest != "" && !strings.HasPrefix(rest, ":memory:") && !strings.HasPrefix(rest, "file:") {
			if _, err := filex.EnsureParentDir(strings.SplitN(rest, "?", 2)[0]); err != nil {
				return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
			}
		}
		return openSQL(ctx, KindSQLite, "sqlite3", sqliteDSN(rest), NewSQLiteRepositoryManager())
	case "memory":
		return &Storage{Kind: KindMemory, Users: users.NewInMemoryRepository()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, scheme)
	}
}

func openSQL(ctx context.Context, kind, driver, dsn string, m RepositoryManager) (*Storage, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStorage, kind, err)
	}

	if kind == KindSQLite {
		// a single writer keeps SQLite from returning SQLITE_BUSY under load
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", common.ErrStorage, kind, err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %w", common.ErrStorage, kind, err)
	}

	return &Storage{Kind: kind, Users: m.Users(db), db: db}, nil
}

// Ping reports whether the backing engine is reachable. The in-memory
// engine is always reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(dsn string) string {
	if i := strings.IndexAny(dsn, ":@/"); i > 0 {
		return dsn[:i] + "..."
	}
	return "..."
}
