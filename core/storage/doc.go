// Package storage provides the object-storage client used to archive
// per-pass synchronization reports. Archiving is optional; the agent's only
// durable state remains the timestamp marker in the target store.
package storage
