// Package storage is the durable task store.
//
// It owns the persisted record of every scheduled task. Drivers:
//   - "sqlite": SQLite database file (default)
//   - "memory": in-process store for tests and ephemeral runs
//
// Cancellation is logical (status flip), never a DELETE, so the audit trail
// survives and an in-flight poll cycle that already read a row cannot race a
// physical deletion.
package storage
