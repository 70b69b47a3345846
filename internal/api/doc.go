// Package api exposes the tracker's records over HTTP. Handlers decode
// request bodies into hook bodies, call the record service, and map errors to
// status codes; caching and invalidation are applied per route by the
// middleware package.
package api
