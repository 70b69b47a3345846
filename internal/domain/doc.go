// Package domain contains the business records the tracker works with: tasks,
// tickets, comment threads, notifications, attendance and the reference data
// (task types, project types, employees) they point at.
//
// The types here carry no persistence or transport concerns. Invariants that
// belong to a single record, such as followers always covering the creator and
// every assignee, are enforced by helpers on the type itself.
package domain
