// Package kvstore provides the durable, process-wide string storage used for
// bearer tokens and last-activity timestamps.
//
// Every backend implements Store:
//
//   - MemoryStore: in-process map, for tests
//   - FileStore: one JSON file, atomic rewrite, visible across processes
//   - SQLiteStore: single-table SQLite database (modernc.org/sqlite, no cgo)
//   - RedisStore: plain keys on a go-redis client
//
// Keys are built with Key so that different audiences never collide:
//
//	key, err := kvstore.Key("session", "admin", "token") // "session:admin:token"
//
// Get returns ErrNotFound for a missing key, and Delete is idempotent.
package kvstore
