package repomanager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/server/models"
	"github.com/dmitrijs2005/wastewatch/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), "memory://")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, KindMemory, s.Kind)
	assert.IsType(t, &users.InMemoryRepository{}, s.Users)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_Unsupported(t *testing.T) {
	for _, dsn := range []string{"mysql://root@localhost/db", "just-a-path.db", ""} {
		_, err := Open(context.Background(), dsn)
		assert.ErrorIs(t, err, ErrUnsupportedDSN, dsn)
	}
}

func TestOpen_UnsupportedDoesNotLeakCredentials(t *testing.T) {
	_, err := Open(context.Background(), "user:secret@host/db")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestOpen_SQLiteMigratesAndEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	s, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, KindSQLite, s.Kind)
	require.NoError(t, s.Ping(ctx))

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         "Ann",
		Email:        "ann@x.io",
		PasswordHash: "$2a$10$abc",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	_, err = s.Users.Create(ctx, u)
	require.NoError(t, err)

	got, err := s.Users.GetUserByEmail(ctx, "ann@x.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.True(t, got.CreatedAt.Equal(u.CreatedAt), "created_at round trip: %v", got.CreatedAt)

	p, err := s.Users.GetProfileByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.Name)

	dup := *u
	dup.ID = uuid.NewString()
	_, err = s.Users.Create(ctx, &dup)
	require.ErrorIs(t, err, common.ErrConflict)

	_, err = s.Users.GetUserByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestOpen_SQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "users.db")

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	id := uuid.NewString()
	_, err = s.Users.Create(ctx, &models.User{ID: id, Name: "Bo", Email: "bo@x.io", PasswordHash: "h", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Users.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bo@x.io", got.Email)
}

func TestOpen_SQLiteConcurrentSignupsSameEmail(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer s.Close()

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Users.Create(ctx, &models.User{
				ID:           uuid.NewString(),
				Name:         fmt.Sprintf("racer %d", i),
				Email:        "race@x.io",
				PasswordHash: "h",
				CreatedAt:    time.Now(),
			})
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, common.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
}

func TestStorage_PingAfterClose(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(ctx), common.ErrStorage)
}

func TestOpen_SQLiteCreatesParentDir(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "users.db")

	s, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	s, err := Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Users.GetUserByEmail(context.Background(), "nobody@x.io")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
