package config

import (
	"reflect"
	"strings"

	"policy-agent/core/database"
	"policy-agent/core/logger"
	"policy-agent/core/server"
	"policy-agent/core/storage"
	"policy-agent/feature/inventory"
	"policy-agent/feature/target"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the agent.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP surface.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the inventory database (source store).
	Database database.Config `mapstructure:"database"`
	// Target holds configuration for the policy backend (target store).
	Target target.Config `mapstructure:"target"`
	// Storage holds configuration for the sync report archive.
	Storage storage.Config `mapstructure:"storage"`
	// Agent holds configuration for the synchronization engine.
	Agent inventory.Config `mapstructure:"agent"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. TARGET_ENDPOINT -> target.endpoint)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values
// in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
