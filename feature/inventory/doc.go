// Package inventory implements the reconciliation and synchronization
// engine. It detects drift between the authoritative inventory database and
// the managed policy backend via revision diffing, and applies the minimal
// corrective operations through a priority-ordered concurrent task runner.
//
// Two trigger channels feed the engine: live change notifications (mapped to
// per-object handlers at the highest priority) and periodic sweeps, which run
// either shallow (revision diff) or full (entire key universe) depending on
// an expiring timestamp marker stored in the target store.
//
// The engine owns no durable state beyond that marker; every sweep recomputes
// everything from the two stores, which makes each corrective handler
// idempotent and the system self-healing: a failed item is simply re-detected
// by the next sweep.
package inventory
