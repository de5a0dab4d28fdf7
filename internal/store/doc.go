// Package store persists transform traces in SQLite.
//
// A run records the payload path, the full script source, and one event row
// per applied statement (seq, op, handles, canonical attrs JSON, status,
// diagnostic, per-element statuses). Run IDs are UUIDv7, so listing by ID
// orders runs by creation time.
//
// ARCHITECTURE:
//
// Single-Writer SQLite:
// WAL mode with one connection. The engine is sequential, so there is never
// writer contention from within a run; WAL keeps concurrent trace reads
// cheap.
//
// Replay:
// Rewrites are not idempotent-safe to retry, so replay never resumes a run
// mid-script. It re-parses the recorded script and applies it to a fresh
// payload from the beginning, producing a new trace that can be compared
// with the recorded one.
package store
