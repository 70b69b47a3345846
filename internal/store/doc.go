// Package store defines the persistence contracts for tracker records.
//
// Every consumer (hooks, synchronizer, notifier, compute) depends on the
// interfaces declared here and never on a concrete database. Two
// implementations exist: internal/platform/postgres for production and
// internal/store/memory for tests and single-process development.
//
// Writes that must respect a one-way latch (ticket conversion, ticket to task
// link) are expressed as conditional operations so that concurrent callers
// cannot both succeed. A losing caller receives an error wrapping ErrConflict.
package store
