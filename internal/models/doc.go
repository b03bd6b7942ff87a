// Package models defines the domain entities of the container yard.
//
// Persistent entities carry a store-assigned ID and sequence number:
//   - [Account] : a registered user, keyed by normalized username, holding only a credential hash
//   - [Container] : a shipping container record, keyed by container number, placed at a yard slot
//
// Input and view types:
//   - [ContainerFields] : the user-supplied fields for a new container record
//   - [ContainerView] : JSON-friendly copy of a [Container]
//   - [Identity] : the account bound to an authenticated session
//   - [Grid] and [Cell] : the yard layout used for validation and rendering
//
// Entities expose their data through accessors; callers always receive values scanned fresh from storage
// and cannot reach into the store's state through them.
package models
