// Package compute serves expensive aggregates from the cache and computes
// missing ones in the background.
//
// A Request never blocks on computation. A fresh value is returned directly;
// a miss enqueues a compute job and returns its handle so the caller can come
// back later. Each kind has its own freshness window.
package compute
