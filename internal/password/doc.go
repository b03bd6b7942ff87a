// Package password hashes and verifies account credentials.
//
// [Argon2] produces argon2id hashes in PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
//
// [Bcrypt] wraps golang.org/x/crypto/bcrypt. [Multi] hashes with one [Hasher] and verifies any encoding it
// recognises, so existing hashes keep verifying after the configured algorithm changes.
//
// Comparisons are constant time. Raw secrets are never stored, returned, or logged by this package.
package password
