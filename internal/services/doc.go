// Package services defines the [Service] interface for the fleet controller API and implements it over HTTP.
//
// # Service Interface
//
// The controller exposes three surfaces the client consumes:
//
//  1. Paginated fetch: [Service.FetchPage] retrieves one page of image records at a byte-stable order
//  2. Bulk mutation: [Service.DeleteImages] submits one batch delete for all selected ids
//  3. Push subscription: [Service.Subscribe] delivers deletion events as they happen
//
// # Registry Implementation
//
// [RegistryService] talks JSON over HTTP for fetch and mutation and consumes Server-Sent Events
// for the subscription. The SSE stream reconnects transparently with backoff; outages are silent
// by design — recovering deletions missed during an outage is the periodic refresh's job, not the
// subscription layer's.
//
// # Error Handling
//
// Transport failures wrap [shared.ErrTransport]. Partial bulk-delete rejections surface as a
// [*MutationError] carrying the rejected ids alongside the result, wrapping [shared.ErrMutation].
//
// [APIService] provides raw request plumbing for the `imx api` debugging commands.
package services
