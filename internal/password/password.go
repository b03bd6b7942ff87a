package password

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidHash        = errors.New("invalid password hash")
	ErrUnsupportedHash    = errors.New("unsupported password hash")
	ErrEmptyPassword      = errors.New("password is empty")
	ErrInvalidHasherParam = errors.New("invalid hasher parameters")
)

// Hasher hashes secrets and verifies them against stored encodings.
type Hasher interface {
	// Hash returns a salted one-way encoding of secret.
	Hash(secret string) (string, error)
	// Verify reports whether secret matches encoded. A malformed encoding returns an error.
	Verify(secret, encoded string) (bool, error)
	// Recognizes reports whether encoded was produced by this algorithm.
	Recognizes(encoded string) bool
}

// Options selects and tunes a [Hasher].
type Options struct {
	Algorithm  string // "argon2id" or "bcrypt"
	Argon2     Config
	BcryptCost int
}

// New builds the configured hasher wrapped in a [Multi] that also verifies the other supported encoding.
func New(opts Options) (*Multi, error) {
	argon, err := NewArgon2(opts.Argon2)
	if err != nil {
		return nil, err
	}

	bc, err := NewBcrypt(opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(opts.Algorithm) {
	case "", algorithmID:
		return NewMulti(argon, bc), nil
	case "bcrypt":
		return NewMulti(bc, argon), nil
	default:
		return nil, fmt.Errorf("%w: algorithm %q", ErrInvalidHasherParam, opts.Algorithm)
	}
}

// Multi hashes with its primary [Hasher] and verifies with whichever hasher recognises the encoding.
type Multi struct {
	primary Hasher
	others  []Hasher
}

// NewMulti creates a [Multi] that hashes with primary.
func NewMulti(primary Hasher, others ...Hasher) *Multi {
	return &Multi{primary: primary, others: others}
}

func (m *Multi) Hash(secret string) (string, error) {
	return m.primary.Hash(secret)
}

func (m *Multi) Verify(secret, encoded string) (bool, error) {
	for _, h := range append([]Hasher{m.primary}, m.others...) {
		if h.Recognizes(encoded) {
			return h.Verify(secret, encoded)
		}
	}
	return false, ErrUnsupportedHash
}

func (m *Multi) Recognizes(encoded string) bool {
	if m.primary.Recognizes(encoded) {
		return true
	}
	for _, h := range m.others {
		if h.Recognizes(encoded) {
			return true
		}
	}
	return false
}

// NeedsRehash reports whether encoded was produced by a non-primary algorithm.
func (m *Multi) NeedsRehash(encoded string) bool {
	return !m.primary.Recognizes(encoded)
}
