// Package store implements the EntityStore: durable, uniquely keyed storage of accounts and container records.
//
// Uniqueness of usernames and container numbers is enforced by the database. The store normalizes input,
// hashes credentials, validates container fields against the yard grid, and translates repository results
// into the (value, error) pairs callers expect: lookups that find nothing return nil without an error.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/password"
	"github.com/desertthunder/yard/internal/repositories"
	"github.com/desertthunder/yard/internal/shared"
)

// Options configures an [EntityStore].
type Options struct {
	Grid           models.Grid
	EnforceBounds  bool
	ExclusiveSlots bool
	Logger         *log.Logger
}

// EntityStore is the persistent collection of accounts and container records.
type EntityStore struct {
	db         *sql.DB
	accounts   *repositories.AccountRepository
	containers *repositories.ContainerRepository
	hasher     password.Hasher
	opts       Options
	logger     *log.Logger

	// dummyHash is verified against when a username does not exist so lookups take similar time either way.
	dummyHash string
}

// New creates an [EntityStore] on an open, migrated database.
func New(db *sql.DB, driver string, hasher password.Hasher, opts Options) (*EntityStore, error) {
	if opts.Grid.Rows == 0 && opts.Grid.Cols == 0 {
		opts.Grid = models.DefaultGrid
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	dummy, err := hasher.Hash(shared.GenerateID())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare credential hasher: %w", err)
	}

	return &EntityStore{
		db:         db,
		accounts:   repositories.NewAccountRepository(db, driver),
		containers: repositories.NewContainerRepository(db, driver),
		hasher:     hasher,
		opts:       opts,
		logger:     opts.Logger.With("component", "store"),
		dummyHash:  dummy,
	}, nil
}

// Grid returns the yard layout used for validation.
func (s *EntityStore) Grid() models.Grid {
	return s.opts.Grid
}

// CreateAccount registers username with a hash of credential.
//
// Fails with [shared.ErrValidation] for an empty normalized username or empty credential and with
// [shared.ErrDuplicateKey] when the normalized username is taken.
func (s *EntityStore) CreateAccount(ctx context.Context, username, credential string) (*models.Account, error) {
	normalized := shared.NormalizeUsername(username)
	if normalized == "" || credential == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrValidation)
	}

	hash, err := s.hasher.Hash(credential)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	account := models.NewAccount(normalized, hash)
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created", "username", account.Username(), "id", account.ID())
	return account, nil
}

// FindAccount returns the account for username when credential verifies, or nil when either does not match.
func (s *EntityStore) FindAccount(ctx context.Context, username, credential string) (*models.Account, error) {
	normalized := shared.NormalizeUsername(username)

	account, err := s.accounts.FindByUsername(ctx, normalized)
	if errors.Is(err, shared.ErrNotFound) {
		_, _ = s.hasher.Verify(credential, s.dummyHash)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(credential, account.CredentialHash())
	if err != nil {
		return nil, fmt.Errorf("failed to verify credential: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return account, nil
}

// CreateContainer validates and stores a container record.
//
// Fails with [shared.ErrValidation] when a required field is empty or the slot lies outside the grid, and
// with [shared.ErrDuplicateKey] when the number exists (or the slot is taken with exclusive slots enabled).
func (s *EntityStore) CreateContainer(ctx context.Context, fields models.ContainerFields) (*models.Container, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	if s.opts.EnforceBounds {
		if err := s.opts.Grid.CheckBounds(fields.RowPos, fields.ColPos); err != nil {
			return nil, err
		}
	}

	container := models.NewContainer(fields)
	opts := repositories.CreateOptions{ExclusiveSlot: s.opts.ExclusiveSlots}
	if err := s.containers.Create(ctx, container, opts); err != nil {
		return nil, err
	}

	s.logger.Info("container created", "number", container.Number(), "row", container.RowPos(), "col", container.ColPos())
	return container, nil
}

// ListContainers returns all records in insertion order.
func (s *EntityStore) ListContainers(ctx context.Context) ([]*models.Container, error) {
	return s.containers.List(ctx)
}

// FindContainerByNumber returns the record whose number equals the trimmed input, or nil.
func (s *EntityStore) FindContainerByNumber(ctx context.Context, number string) (*models.Container, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, nil
	}

	c, err := s.containers.FindByNumber(ctx, number)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CountAccounts returns the number of registered accounts.
func (s *EntityStore) CountAccounts(ctx context.Context) (int, error) {
	return s.accounts.Count(ctx)
}

// CountContainers returns the number of stored containers.
func (s *EntityStore) CountContainers(ctx context.Context) (int, error) {
	return s.containers.Count(ctx)
}

// Ping checks that the database is reachable.
func (s *EntityStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	return nil
}
