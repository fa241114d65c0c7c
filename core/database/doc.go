// Package database manages the connection to the authoritative inventory
// database (the source store). Every object the agent reconciles (security
// groups, QoS policies, ports) is read from here; the agent never writes to
// this database.
package database
