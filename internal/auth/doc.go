// Package auth implements the SessionGate: it authenticates credential pairs against the entity store,
// binds the resulting identity to an opaque session token, and guards container operations.
//
// # Session lifecycle
//
// A token is either unknown (anonymous) or bound to an [models.Identity] until it expires or is
// logged out:
//
//	Anonymous --Register/Login--> Authenticated --Logout/expiry--> Anonymous
//
// Registration logs the new account in. [SessionGate.RequireAuthenticated] fails closed: any token that is
// empty, unknown, expired, or cannot be looked up is rejected with [shared.ErrUnauthenticated].
//
// # Session stores
//
// Sessions live behind the [SessionStore] interface so they can be injected:
//   - [MemoryStore] : in-process map with explicit expiry, for single-node deployments and tests
//   - [RedisStore] : go-redis backed store using key TTLs, for sessions that survive restarts
//
// Tokens are 32 random bytes encoded as unpadded base64url.
//
// # Throttling
//
// [Throttle] keeps a token bucket per normalized username (golang.org/x/time/rate) so repeated failed logins
// against one account are slowed down regardless of client address.
package auth
