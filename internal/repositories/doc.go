// Package repositories implements SQLite persistence for the controller's domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Repositories follow the soft-delete convention: deleted rows keep their data and are marked via
// deleted_at timestamps. Unlike a typical cache, deleted images stay visible to list queries so
// clients can render the terminal state instead of silently dropping records.
//
// Key Implementations:
//   - [ImageRepository] : Image rows plus their fleet locations, page queries for the list API,
//     batch should_delete marking for the bulk-delete endpoint, and reaper queries
//
// Sequence numbers provide stable, human-readable ordering (e.g., image #42) independent of UUIDs
// and creation timestamps. The [NextSequence] function atomically increments per-table sequence
// counters in dedicated sequence tables.
package repositories
