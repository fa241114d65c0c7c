package inventory

import (
	"context"
	"time"

	"policy-agent/feature/target"
)

// markerName is the singleton marker object carrying the last full-sync time.
const markerName = "last_full_synchronization"

// Timestamp is the full-sync gate: an expiring marker persisted in the
// target store so multiple agent instances converge on the same decision
// without a shared clock service.
type Timestamp struct {
	name   string
	client target.Client
	ttl    time.Duration
}

// NewTimestamp creates a gate over the named marker with the given expiry.
func NewTimestamp(name string, client target.Client, ttl time.Duration) *Timestamp {
	return &Timestamp{name: name, client: client, ttl: ttl}
}

// HasExpired reads the marker from the target store on every call. A marker
// that is absent or unreadable counts as expired, forcing the first pass of
// a fresh deployment to be full.
func (t *Timestamp) HasExpired(ctx context.Context) bool {
	last, err := t.client.GetMarker(ctx, t.name)
	if err != nil {
		return true
	}
	return time.Since(last) >= t.ttl
}

// Update writes the current time to the marker. Called only after a full
// pass has been submitted successfully.
func (t *Timestamp) Update(ctx context.Context) error {
	return t.client.SetMarker(ctx, t.name, time.Now().UTC())
}
