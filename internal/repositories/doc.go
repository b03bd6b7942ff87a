// Package repositories implements SQL persistence for accounts and container records.
//
// Each repository runs its writes inside a single transaction: the per-table sequence counter is incremented
// and the row inserted together, so a failed insert also rolls back the counter and no partial record is
// ever visible.
//
// Key Implementations:
//   - [AccountRepository] : account persistence with username lookups
//   - [ContainerRepository] : container persistence with number lookups and optional slot exclusivity
//
// Uniqueness (username, container number) is enforced by UNIQUE constraints in the schema. Constraint
// violations from SQLite and PostgreSQL are classified by [IsUniqueViolation] and surfaced as
// [shared.ErrDuplicateKey].
//
// Queries are written with "?" placeholders and rebound to "$n" when the driver is pgx.
package repositories
