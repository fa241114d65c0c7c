package target

// Config holds configuration for the policy backend connection.
type Config struct {
	// Endpoint is the base URL of the policy backend API.
	Endpoint string `mapstructure:"endpoint" default:"https://localhost:443"`
	// User is the API user.
	User string `mapstructure:"user" default:"admin"`
	// Password is the API password.
	Password string `mapstructure:"password" default:""`
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" default:"false"`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
