// Package storage holds the durable token slot.
//
// A TokenStore keeps at most one bearer token. Writes are synchronous and
// survive a process restart; nothing is validated on the way in or out.
//
// Implementations:
//   - BadgerStore: one key in an embedded Badger v3 database, fsynced on
//     every write, optionally sealed with pkg/crypto/adaptive.
//   - MemoryStore: process-lifetime only, for tests and ephemeral sessions.
package storage
