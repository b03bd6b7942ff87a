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

const containerColumns = "id, sequence, number, origin, destination, row_pos, col_pos, owner, created_at"

// ContainerRepository persists [models.Container] rows.
type ContainerRepository struct {
	db     *sql.DB
	driver string
}

// CreateOptions tunes [ContainerRepository.Create].
type CreateOptions struct {
	// ExclusiveSlot rejects the insert when another container already occupies (row_pos, col_pos).
	ExclusiveSlot bool
}

// NewContainerRepository creates a new [ContainerRepository] for the given connection and driver name.
func NewContainerRepository(db *sql.DB, driver string) *ContainerRepository {
	return &ContainerRepository{db: db, driver: driver}
}

// Create inserts a container with a generated ID and sequence.
//
// A duplicate number yields [shared.ErrDuplicateKey]; an occupied slot with opts.ExclusiveSlot yields
// [shared.ErrSlotOccupied].
func (r *ContainerRepository) Create(ctx context.Context, container *models.Container, opts CreateOptions) error {
	if err := container.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	var sequence int

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		seq, err := NextSequence(ctx, tx, "containers")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		sequence = seq

		if opts.ExclusiveSlot {
			var occupied int
			slotQuery := Rebind(r.driver, `SELECT COUNT(*) FROM containers WHERE row_pos = ? AND col_pos = ?`)
			if err := tx.QueryRowContext(ctx, slotQuery, container.RowPos(), container.ColPos()).Scan(&occupied); err != nil {
				return fmt.Errorf("failed to check slot: %w", err)
			}
			if occupied > 0 {
				return fmt.Errorf("%w: (%d, %d)", shared.ErrSlotOccupied, container.RowPos(), container.ColPos())
			}
		}

		query := Rebind(r.driver, `
			INSERT INTO containers (`+containerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)

		_, err = tx.ExecContext(ctx, query,
			id, seq, container.Number(), container.Origin(), container.Destination(),
			container.RowPos(), container.ColPos(), container.Owner(), container.CreatedAt(),
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: container %q already exists", shared.ErrDuplicateKey, container.Number())
			}
			return fmt.Errorf("failed to insert container: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	container.SetID(id)
	container.SetSequence(sequence)
	return nil
}

// List returns every container in insertion order.
func (r *ContainerRepository) List(ctx context.Context) ([]*models.Container, error) {
	query := `SELECT ` + containerColumns + ` FROM containers ORDER BY sequence ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query containers: %w", err)
	}
	defer rows.Close()

	containers := []*models.Container{}
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan container: %w", err)
		}
		containers = append(containers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return containers, nil
}

// FindByNumber returns the container with exactly this number or [shared.ErrNotFound].
func (r *ContainerRepository) FindByNumber(ctx context.Context, number string) (*models.Container, error) {
	query := Rebind(r.driver, `SELECT `+containerColumns+` FROM containers WHERE number = ?`)

	c, err := scanContainer(r.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: container %q", shared.ErrNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query container: %w", err)
	}
	return c, nil
}

// Count returns the number of stored containers.
func (r *ContainerRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "containers")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContainer(s scanner) (*models.Container, error) {
	var (
		id        string
		sequence  int
		f         models.ContainerFields
		createdAt time.Time
	)

	if err := s.Scan(&id, &sequence, &f.Number, &f.Origin, &f.Destination, &f.RowPos, &f.ColPos, &f.Owner, &createdAt); err != nil {
		return nil, err
	}
	return models.RestoreContainer(id, sequence, f, createdAt), nil
}
