// Package cache provides the shared response and computation cache.
//
// Store has two backends: MemoryStore (bounded LRU, one process) and
// RedisStore (shared by replicas). Production code reaches either through
// Resilient, which logs backend failures and degrades them to misses so a
// cache outage never fails a request.
//
// Entries are never served at or after their expiry. Writes invalidate by
// pattern: a trailing "*" selects every key with that prefix.
package cache
