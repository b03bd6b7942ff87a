package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/yard/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	Sequence() int        // Sequence returns the insertion order assigned by the store
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Identity is the authenticated principal attached to a session.
type Identity struct {
	AccountID string
	Username  string
}

// Account is a registered user.
type Account struct {
	id             string
	sequence       int
	username       string
	credentialHash string
	createdAt      time.Time
}

// NewAccount creates an unsaved account for the normalized form of username.
func NewAccount(username, credentialHash string) *Account {
	return &Account{
		username:       shared.NormalizeUsername(username),
		credentialHash: credentialHash,
		createdAt:      time.Now().UTC(),
	}
}

// RestoreAccount rebuilds an account from stored column values.
func RestoreAccount(id string, sequence int, username, credentialHash string, createdAt time.Time) *Account {
	return &Account{
		id:             id,
		sequence:       sequence,
		username:       username,
		credentialHash: credentialHash,
		createdAt:      createdAt,
	}
}

// ID returns the account UUID.
func (a *Account) ID() string { return a.id }

// Sequence returns the store-assigned row number.
func (a *Account) Sequence() int { return a.sequence }

// Username returns the normalized username.
func (a *Account) Username() string { return a.username }

// CredentialHash returns the encoded password hash.
func (a *Account) CredentialHash() string { return a.credentialHash }

// CreatedAt returns the registration time in UTC.
func (a *Account) CreatedAt() time.Time { return a.createdAt }

// SetID assigns the UUID when the account is persisted.
func (a *Account) SetID(id string) { a.id = id }

// SetSequence assigns the store row number.
func (a *Account) SetSequence(seq int) { a.sequence = seq }

// Identity returns the session-facing view of the account.
func (a *Account) Identity() Identity { return Identity{AccountID: a.id, Username: a.username} }

// String returns the username.
func (a *Account) String() string { return a.username }

// Validate requires a username and a credential hash.
func (a *Account) Validate() error {
	if a.username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if a.credentialHash == "" {
		return fmt.Errorf("%w: credential is required", shared.ErrValidation)
	}
	return nil
}

// ContainerFields are the user-supplied values for a container record.
type ContainerFields struct {
	Number      string
	Origin      string
	Destination string
	RowPos      int
	ColPos      int
	Owner       string
}

// Normalize trims the container number. All other fields are kept verbatim.
func (f ContainerFields) Normalize() ContainerFields {
	f.Number = strings.TrimSpace(f.Number)
	return f
}

// Validate reports the first required field that is empty after trimming.
func (f ContainerFields) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"number", f.Number},
		{"origin", f.Origin},
		{"destination", f.Destination},
		{"owner", f.Owner},
	}

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", shared.ErrValidation, field.name)
		}
	}
	return nil
}

// Container is a shipping container placed in the yard.
type Container struct {
	id        string
	sequence  int
	fields    ContainerFields
	createdAt time.Time
}

// NewContainer creates an unsaved container from normalized fields.
func NewContainer(fields ContainerFields) *Container {
	return &Container{fields: fields.Normalize(), createdAt: time.Now().UTC()}
}

// RestoreContainer rebuilds a container from stored column values.
func RestoreContainer(id string, sequence int, fields ContainerFields, createdAt time.Time) *Container {
	return &Container{id: id, sequence: sequence, fields: fields, createdAt: createdAt}
}

// ID returns the container UUID.
func (c *Container) ID() string { return c.id }

// Sequence returns the store-assigned row number.
func (c *Container) Sequence() int { return c.sequence }

// Number returns the trimmed container number.
func (c *Container) Number() string { return c.fields.Number }

// Origin returns the port of origin.
func (c *Container) Origin() string { return c.fields.Origin }

// Destination returns the destination port.
func (c *Container) Destination() string { return c.fields.Destination }

// RowPos returns the yard row.
func (c *Container) RowPos() int { return c.fields.RowPos }

// ColPos returns the yard column.
func (c *Container) ColPos() int { return c.fields.ColPos }

// Owner returns the owning company.
func (c *Container) Owner() string { return c.fields.Owner }

// CreatedAt returns the placement time in UTC.
func (c *Container) CreatedAt() time.Time { return c.createdAt }

// Fields returns a copy of the user-supplied values.
func (c *Container) Fields() ContainerFields { return c.fields }

// SetID assigns the UUID when the container is persisted.
func (c *Container) SetID(id string) { c.id = id }

// SetSequence assigns the store row number.
func (c *Container) SetSequence(seq int) { c.sequence = seq }

// Validate checks the required fields.
func (c *Container) Validate() error {
	return c.fields.Validate()
}

// ContainerView is the serializable form of a [Container].
type ContainerView struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	RowPos      int       `json:"row_pos"`
	ColPos      int       `json:"col_pos"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

// View returns a copy of c suitable for JSON output and templates.
func (c *Container) View() ContainerView {
	return ContainerView{
		ID:          c.id,
		Number:      c.fields.Number,
		Origin:      c.fields.Origin,
		Destination: c.fields.Destination,
		RowPos:      c.fields.RowPos,
		ColPos:      c.fields.ColPos,
		Owner:       c.fields.Owner,
		CreatedAt:   c.createdAt,
	}
}

// Views converts a slice of containers.
func Views(containers []*Container) []ContainerView {
	out := make([]ContainerView, 0, len(containers))
	for _, c := range containers {
		out = append(out, c.View())
	}
	return out
}
