package inventory

// Config holds configuration for the synchronization engine.
type Config struct {
	// Host is the binding host identity of this agent; only ports bound to
	// it are reconciled.
	Host string `mapstructure:"host" default:""`
	// PollingIntervalSeconds is the minimum time between periodic syncs.
	PollingIntervalSeconds int `mapstructure:"polling_interval_seconds" default:"30"`
	// FullSyncIntervalSeconds is the expiry of the full-sync timestamp marker.
	FullSyncIntervalSeconds int `mapstructure:"full_sync_interval_seconds" default:"3600"`
	// PageLimit is the page size of revision scans against the source store.
	PageLimit int `mapstructure:"page_limit" default:"1000"`
	// ConcurrentRequests is the worker pool size of the task runner.
	ConcurrentRequests int `mapstructure:"concurrent_requests" default:"10"`
}
