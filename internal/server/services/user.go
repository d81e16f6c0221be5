// Package services contains server-side business logic. This file implements
// UserService: account registration, credential verification with token
// issuance, and the profile lookup behind the dashboard.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/logging"
	"github.com/dmitrijs2005/wastewatch/internal/server/config"
	"github.com/dmitrijs2005/wastewatch/internal/server/models"
	"github.com/dmitrijs2005/wastewatch/internal/server/repositories/users"
	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hashed string) bool
}

type TokenIssuer interface {
	Issue(subjectID string, now time.Time) (string, error)
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type SigninInput struct {
	Email    string
	Password string
}

// SigninResult is what a successful sign-in hands back to the caller.
type SigninResult struct {
	Token string
	User  *models.Profile
}

// UserService orchestrates the credential store, the password hasher and
// the token codec. It holds no mutable state of its own.
type UserService struct {
	users          users.Repository
	hasher         PasswordHasher
	tokens         TokenIssuer
	storageTimeout time.Duration
	log            logging.Logger

	now   func() time.Time
	newID func() string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(repo users.Repository, hasher PasswordHasher, tokens TokenIssuer, cfg *config.Config, log logging.Logger) *UserService {
	if log == nil {
		log = logging.Nop()
	}
	timeout := cfg.StorageTimeout
	if timeout <= 0 {
		timeout = config.DefaultStorageTimeout
	}
	return &UserService{
		users:          repo,
		hasher:         hasher,
		tokens:         tokens,
		storageTimeout: timeout,
		log:            log.With("module", "services.user"),
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Signup registers a new account. It never issues a token.
//
// A duplicate email yields common.ErrConflict whether it is caught by the
// pre-check or by the store's unique index during a concurrent signup.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.Profile, error) {
	if err := validateSignup(in); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)

	_, err := s.lookupByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	created, err := s.users.Create(sctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	return created.Profile(), nil
}

// Signin verifies the credentials and issues a session token. An unknown
// email fails with common.ErrorNotFound, a wrong password with
// common.ErrInvalidCredentials.
func (s *UserService) Signin(ctx context.Context, in SigninInput) (*SigninResult, error) {
	if err := validateSignin(in); err != nil {
		return nil, err
	}

	user, err := s.lookupByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &SigninResult{Token: token, User: user.Profile()}, nil
}

// Profile returns the display projection of the given subject. A subject
// whose record has gone away yields common.ErrorNotFound.
func (s *UserService) Profile(ctx context.Context, subjectID string) (*models.Profile, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	return s.users.GetProfileByID(sctx, subjectID)
}

func (s *UserService) lookupByEmail(ctx context.Context, email string) (*models.User, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	return s.users.GetUserByEmail(sctx, email)
}
