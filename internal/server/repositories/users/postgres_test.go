package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const testID = "7c1f7a52-0d6e-4b7a-9a8e-3f2b8f1d2c11"

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func testUser() *models.User {
	return &models.User{
		ID:           testID,
		Name:         "Ann",
		Email:        "ann@x.io",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*email,\s*password_hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := testUser()
	mock.ExpectExec(insertQ).
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != testID || got.Email != "ann@x.io" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := testUser()
	mock.ExpectExec(insertQ).
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), u)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := testUser()
	mock.ExpectExec(insertQ).
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), u)
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if errors.Is(err, common.ErrConflict) {
		t.Fatalf("storage failure must not look like a conflict: %v", err)
	}
}

const selectByEmailQ = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`

func TestGetUserByEmail(t *testing.T) {
	u := testUser()

	tests := []struct {
		name    string
		setup   func(m sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "found",
			setup: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
					AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
				m.ExpectQuery(selectByEmailQ).WithArgs(u.Email).WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectByEmailQ).WithArgs(u.Email).WillReturnError(sql.ErrNoRows)
			},
			wantErr: common.ErrorNotFound,
		},
		{
			name: "db error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectByEmailQ).WithArgs(u.Email).WillReturnError(errors.New("boom"))
			},
			wantErr: common.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()
			tt.setup(mock)

			got, err := repo.GetUserByEmail(context.Background(), u.Email)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != *u {
				t.Fatalf("got %+v, want %+v", got, u)
			}
		})
	}
}

func TestGetUserByID_NonUUIDIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.GetUserByID(context.Background(), "not-a-uuid")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestGetUserByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := testUser()
	q := `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
		AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	mock.ExpectQuery(q).WithArgs(u.ID).WillReturnRows(rows)

	got, err := repo.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetProfileByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := testUser()
	q := `(?s)^SELECT\s+id,\s*name,\s*email,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	rows := sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
		AddRow(u.ID, u.Name, u.Email, u.CreatedAt)
	mock.ExpectQuery(q).WithArgs(u.ID).WillReturnRows(rows)

	got, err := repo.GetProfileByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetProfileByID error: %v", err)
	}
	if *got != *u.Profile() {
		t.Fatalf("got %+v, want %+v", got, u.Profile())
	}
}

func TestGetProfileByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*email,\s*created_at\s+FROM\s+users`
	mock.ExpectQuery(q).WithArgs(testID).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetProfileByID(context.Background(), testID)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
