// Package users is the credential store: the durable mapping from a
// normalized email to a user record.
//
// Every implementation guarantees that two concurrent Create calls for
// the same email cannot both succeed; the loser gets common.ErrConflict.
// Absent records are reported as common.ErrorNotFound and infrastructure
// failures match common.ErrStorage.
package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", common.ErrStorage, err)
}
