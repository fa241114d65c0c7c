// Package source reads the authoritative inventory database (the source
// store). It exposes cursor-paged revision tuples for the three reconciled
// object kinds plus the detail queries the corrective handlers need. The
// agent never writes to this database.
package source
