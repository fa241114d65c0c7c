// Package locking provides a registry of named mutual-exclusion locks.
//
// Locks are created lazily on first acquisition and garbage-collected once
// the last holder releases, so the registry never grows with the number of
// object ids seen over the agent's lifetime.
//
// # Usage
//
//	handle := locks.Acquire(portID)
//	defer handle.Release()
//
// Deadlock avoidance is the caller's responsibility: hold at most one key at
// a time, or acquire nested keys in a fixed order (the global sync lock is
// always outermost).
package locking
