package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/server/models"
)

// InMemoryRepository keeps users in process memory. It is meant for local
// development and tests; everything is lost on restart.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrConflict
	}
	if _, ok := r.byID[user.ID]; ok {
		return nil, common.ErrConflict
	}

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID

	u := *user
	return &u, nil
}

func (r *InMemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *InMemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *InMemoryRepository) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	u, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

// Delete removes a user. It stands in for the administrative path that
// the service itself never exposes.
func (r *InMemoryRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byID, id)
	}
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
)
