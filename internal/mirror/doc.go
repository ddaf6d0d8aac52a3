// Package mirror keeps a client-held copy of the controller's image collection consistent
// under three concurrent influences: paged bulk fetches, asynchronous deletion events, and
// user-initiated bulk-delete submissions.
//
// # Core Types
//
//   - [KnownSet] : The authoritative id → image mapping. Grows via [KnownSet.MergePage],
//     is patched in place via [KnownSet.ApplyDeletion], and never shrinks — deleted images
//     stay present with their terminal timestamp so views can annotate rather than drop them.
//   - [Policy] : Pure derivation of the display sequence — filtering out images with no
//     fleet locations (configurable) and ordering active before terminal, newest first,
//     with id tiebreaks for deterministic rendering.
//   - [Selection] : The set of user-chosen image ids, pruned lazily against the current
//     display sequence before every read so stale ids never reach the delete workflow.
//   - [Workflow] : The bulk-delete state machine (idle → confirming → submitting → idle).
//   - [View] : Owns one instance of everything above, serializes mutations, bumps a state
//     version on every ingestion, and invokes the render callback with a fresh [Snapshot].
//
// # Merge Discipline
//
// Fetches and deletion events race: an event can mark an image deleted before an earlier
// initiated fetch returns its pre-deletion snapshot. MergePage therefore only overwrites an
// existing record when the incoming one is terminal and the existing one is not, while
// ApplyDeletion always wins because events reflect current controller truth. Events for ids
// not yet fetched are buffered and applied the first time the id appears in a page. The two
// operations commute: fetch-then-event and event-then-fetch converge on the same record.
//
// # Ingestion Contract
//
// All engine operations are synchronous and perform no I/O. Drivers (the TUI event loop and
// [tasks.Feed]) perform fetches and submissions and hand the results to the View, which is
// safe for concurrent use and ignores ingestions after Close so late completions cannot
// mutate a disposed view.
package mirror
