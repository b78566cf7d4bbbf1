// Package scheduler owns the task lifecycle: durable scheduling, the
// background poll loop, precise deferred timers, recurrence, and dispatch.
//
// The store is the single source of truth. The poll loop is the authoritative
// execution path; deferred timers only shave latency off short-horizon tasks
// and are always rederivable from the store. A lost timer (process restart)
// means the next poll cycle picks the task up; nothing is silently dropped.
package scheduler
