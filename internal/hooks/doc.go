// Package hooks dispatches lifecycle hooks around record writes.
//
// For each entity type a Registry holds before- and after-hooks for create
// and update. Before-hooks run synchronously in order and may rewrite the
// request Body; the first error aborts the write. After-hooks run once the
// write is persisted. Each one is isolated from the others: a failure is
// logged, never returned to the caller and never rolled back. Work that must
// survive failures is enqueued as a job instead of done inline.
package hooks
