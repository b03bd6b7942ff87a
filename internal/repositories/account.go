package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/shared"
)

// AccountRepository persists [models.Account] rows.
type AccountRepository struct {
	db     *sql.DB
	driver string
}

// NewAccountRepository creates a new [AccountRepository] for the given connection and driver name.
func NewAccountRepository(db *sql.DB, driver string) *AccountRepository {
	return &AccountRepository{db: db, driver: driver}
}

// Create inserts a new account with a generated ID and sequence.
//
// A username that already exists yields [shared.ErrDuplicateKey].
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	var sequence int

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		seq, err := NextSequence(ctx, tx, "accounts")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		sequence = seq

		query := Rebind(r.driver, `
			INSERT INTO accounts (id, sequence, username, credential_hash, created_at) VALUES (?, ?, ?, ?, ?)
		`)

		_, err = tx.ExecContext(ctx, query, id, seq, account.Username(), account.CredentialHash(), account.CreatedAt())
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: username %q already exists", shared.ErrDuplicateKey, account.Username())
			}
			return fmt.Errorf("failed to insert account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	account.SetID(id)
	account.SetSequence(sequence)
	return nil
}

// FindByUsername returns the account with the given (already normalized) username or [shared.ErrNotFound].
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := Rebind(r.driver, `
		SELECT id, sequence, username, credential_hash, created_at
		FROM accounts
		WHERE username = ?
	`)

	var (
		id        string
		sequence  int
		name      string
		hash      string
		createdAt time.Time
	)

	err := r.db.QueryRowContext(ctx, query, username).Scan(&id, &sequence, &name, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %q", shared.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	return models.RestoreAccount(id, sequence, name, hash, createdAt), nil
}

// Count returns the number of stored accounts.
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "accounts")
}
