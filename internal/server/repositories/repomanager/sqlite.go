package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wastewatch/internal/dbx"
	"github.com/dmitrijs2005/wastewatch/internal/server/migrations"
	"github.com/dmitrijs2005/wastewatch/internal/server/repositories/users"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// SQLiteRepositoryManager is the single-file engine used for local runs.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, migrations.SQLiteDir)
}

func NewSQLiteRepositoryManager() RepositoryManager {
	return &SQLiteRepositoryManager{}
}
