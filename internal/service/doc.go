// Package service applies create and update requests to tracker records.
//
// Every write follows the same pipeline: before-hooks may rewrite or reject
// the request body, the record is built or patched from the body and
// persisted, and after-hooks then run their side effects. Only before-hook
// and persistence failures reach the caller; after-hook failures are logged
// by the hook registry.
package service
