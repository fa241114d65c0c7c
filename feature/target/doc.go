// Package target defines the client contract for the managed policy backend
// (the target store) and provides its REST implementation.
//
// The synchronization engine only depends on the Client interface: idempotent
// CRUD for security groups, firewall rules, QoS profiles and ports, keyed by
// the source-store object id, plus the timestamp marker used by the full-sync
// gate. Revision mismatches surface as ErrConflict so a sweep can retry them
// naturally; "already exists" is a documented result kind (ErrAlreadyExists),
// not an error string to match.
package target
