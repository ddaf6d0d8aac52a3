// Package server implements the controller API that fronts the fleet's image registry.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Endpoints
//
// [ImageHandler] serves the listing surface:
//   - GET /api/images : one page of the listing, offset/limit parameters,
//     ordered newest first with deleted records included and annotated
//   - POST /api/images/delete : accepts a batch of ids for deletion, returning
//     accepted and rejected ids; rejected ids are unknown or already deleted
//
// [Hub.SSEHandler] serves GET /api/events, a server-sent event stream that
// pushes a deletion event the moment the reaper stamps a record terminal.
//
// GET /api/health and GET /api/config round out the surface for clients
// probing availability and discovering server-suggested defaults.
//
// # Deletion Lifecycle
//
// Deletion is asynchronous. POST /api/images/delete only flags records; the
// [Reaper] sweeps flagged records on a timer, stamps deleted_at, publishes the
// event, and then drains the record's fleet locations on the following sweep.
// Stamped records stay in the listing so clients can show them annotated.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
