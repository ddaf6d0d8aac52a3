// Package tasks orchestrates the long-running client-side operations that keep a
// live image listing current, with real-time progress reporting.
//
// # Core Operations
//
// The [FeedEngine] interface defines four operations:
//
//  1. [FeedEngine.Run] : Long-lived feed loop
//     - Subscribes to the controller's deletion stream
//     - Fills the backlog one page at a time, strictly in sequence
//     - Periodically re-walks the known range to recover from missed events
//
//  2. [FeedEngine.FillBacklog] : Fetch pages until the listing is exhausted
//     - Each fetch waits for the previous one to land before computing its offset
//     - Transport errors surface on the view and stop the walk
//
//  3. [FeedEngine.Refresh] : Re-walk the full known range from offset zero
//     - Re-fetched pages merge without clobbering locally applied deletions
//
//  4. [FeedEngine.SubmitDelete] : Drive a confirmed delete through the controller
//     - Partial rejections resolve the workflow without failing it
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Rate Limiting
//
// Page fetches pass through a token bucket ([rate.Limiter]) so backlog fills and
// refresh walks never exceed the configured requests per second against the controller.
//
// # Implementation
//
// [ImageFeed] implements [FeedEngine] with dependencies on:
//   - [mirror.View] : The listing state it feeds
//   - [services.Service] : The controller API client
package tasks
