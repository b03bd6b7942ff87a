package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/shared"
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 12 * time.Hour

// Accounts is the part of the entity store the gate authenticates against.
type Accounts interface {
	CreateAccount(ctx context.Context, username, credential string) (*models.Account, error)
	FindAccount(ctx context.Context, username, credential string) (*models.Account, error)
}

// GateOptions configures a [SessionGate].
type GateOptions struct {
	TTL      time.Duration
	Throttle *Throttle
	Logger   *log.Logger
	Now      func() time.Time
}

// SessionGate authenticates users and authorizes session tokens.
type SessionGate struct {
	accounts Accounts
	sessions SessionStore
	ttl      time.Duration
	throttle *Throttle
	logger   *log.Logger
	now      func() time.Time
}

// NewSessionGate creates a [SessionGate] over accounts and sessions.
func NewSessionGate(accounts Accounts, sessions SessionStore, opts GateOptions) *SessionGate {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SessionGate{
		accounts: accounts,
		sessions: sessions,
		ttl:      opts.TTL,
		throttle: opts.Throttle,
		logger:   opts.Logger.With("component", "auth"),
		now:      opts.Now,
	}
}

// TTL returns the lifetime given to new sessions.
func (g *SessionGate) TTL() time.Duration {
	return g.ttl
}

// Register creates the account and returns an authenticated session for it.
//
// Errors from the store ([shared.ErrDuplicateKey], [shared.ErrValidation]) are returned unchanged.
func (g *SessionGate) Register(ctx context.Context, username, credential string) (*Session, error) {
	account, err := g.accounts.CreateAccount(ctx, username, credential)
	if err != nil {
		return nil, err
	}

	session, err := g.issue(ctx, account)
	if err != nil {
		g.logger.Error("account created but session could not be started", "username", account.Username(), "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrSessionUnavailable, err)
	}

	g.logger.Info("registered", "username", account.Username())
	return session, nil
}

// Login verifies the credential pair and returns an authenticated session.
//
// A mismatch yields [shared.ErrInvalidCredentials]; too many attempts for one username yield
// [shared.ErrTooManyAttempts].
func (g *SessionGate) Login(ctx context.Context, username, credential string) (*Session, error) {
	key := shared.NormalizeUsername(username)
	if !g.throttle.Allow(key) {
		g.logger.Warn("login throttled", "username", key)
		return nil, shared.ErrTooManyAttempts
	}

	account, err := g.accounts.FindAccount(ctx, username, credential)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		g.logger.Info("login failed", "username", key)
		return nil, shared.ErrInvalidCredentials
	}

	g.throttle.Reset(key)

	session, err := g.issue(ctx, account)
	if err != nil {
		return nil, err
	}

	g.logger.Info("logged in", "username", account.Username())
	return session, nil
}

// Logout ends the session bound to token. Unknown and empty tokens are ignored.
func (g *SessionGate) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := g.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// RequireAuthenticated returns the identity bound to token or [shared.ErrUnauthenticated].
func (g *SessionGate) RequireAuthenticated(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, shared.ErrUnauthenticated
	}

	session, err := g.sessions.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, shared.ErrSessionNotFound) {
			g.logger.Error("session lookup failed", "error", err)
		}
		return models.Identity{}, shared.ErrUnauthenticated
	}

	if session.Expired(g.now()) {
		return models.Identity{}, shared.ErrUnauthenticated
	}

	return session.Identity(), nil
}

func (g *SessionGate) issue(ctx context.Context, account *models.Account) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	now := g.now()
	session := Session{
		Token:     token,
		AccountID: account.ID(),
		Username:  account.Username(),
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}

	if err := g.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &session, nil
}
