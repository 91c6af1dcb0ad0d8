// Package store implements allocation.Store. MemoryStore keeps everything in
// maps and suits tests and one-shot CLI runs; SQLiteStore persists to an
// embedded SQLite database.
package store
