// Package web implements an HTMX-based browser frontend mirroring the TUI functionality.
//
// # HTMX Web Application Implementation Plan
//
// # Architecture
//
// The web app replicates the three-view TUI workflow using server-side rendering
// with HTMX for dynamic updates. Each view corresponds to a template and handler:
//
//  1. Image List: Server-rendered table, infinite scroll via hx-get paging
//  2. Delete Confirm: Modal confirmation with hx-post trigger
//  3. Result Display: Accepted/rejected breakdown after submission
//
// Core Components
//
//   - HTTP Server: the controller's router (internal/server) extended with HTML routes
//   - State Engine: the same mirror.View per browser session that the TUI uses,
//     fed by a server-side tasks.ImageFeed
//   - SSE Consumer: the browser subscribes to /api/events directly; deleted rows
//     swap to their annotated form via hx-swap-oob
//
// Routes
//
//	GET  /                     → Image list view
//	GET  /images?offset=N      → HTMX partial: next page of rows
//	POST /images/delete        → Submit selected ids, return result partial
//	GET  /events               → SSE stream (proxied from /api/events)
//
// Templates
//
//   - base.html: Layout with connection status indicator
//   - images.html: Table rows with hx-get sentinel for the next page
//   - confirm.html: Modal listing the selected batch
//   - result.html: Accepted/rejected breakdown
//
// # State Management
//
// Unlike the TUI's single in-memory view, the web app keys views by session:
//   - Session cookie: anonymous id binding the browser to its mirror.View
//   - In-memory registry: session id → view + feed, reaped on idle timeout
//   - Selection state: held client-side in checkboxes, submitted as a batch
//
// # Deletion Flow
//
//  1. User checks rows and clicks Delete, opening the confirm modal
//  2. POST /images/delete flags the batch through the controller repository
//  3. The reaper publishes deletion events as records go terminal
//  4. The browser's SSE subscription swaps affected rows to annotated form
//
// # Status
//
// Planned. The JSON API and SSE stream this frontend consumes are live in
// internal/server; the HTML layer has not been started.
package web
