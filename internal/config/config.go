// Package config provides configuration structures and loading for PolyTrack.
package config

// Config represents the complete application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Tracker   TrackerConfig   `yaml:"tracker" mapstructure:"tracker"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// StoreConfig represents the persisted polymorphic-config store settings.
type StoreConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`           // SQLite file path
	ConfigID string `yaml:"config_id" mapstructure:"config_id"` // document key within the store
}

// TrackerConfig represents tracker seeding settings.
type TrackerConfig struct {
	// Types is the set of polymorphic types seeded into a freshly created
	// config document. Types discovered or added later live in the persisted
	// document, not in this list.
	Types []string `yaml:"types" mapstructure:"types"`
}

// DiscoveryConfig represents schema discovery settings.
type DiscoveryConfig struct {
	// CacheSeconds is how long a schema snapshot is reused before
	// re-introspecting. Zero disables the snapshot cache.
	CacheSeconds int `yaml:"cache_seconds" mapstructure:"cache_seconds"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Store: StoreConfig{
			Path:     "polytrack.db",
			ConfigID: "default",
		},
		Tracker: TrackerConfig{
			Types: []string{"notable", "loggable", "schedulable"},
		},
		Discovery: DiscoveryConfig{
			CacheSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyOverrides applies CLI flag values over the loaded configuration.
// Empty values leave the corresponding setting untouched.
func (c *Config) ApplyOverrides(logLevel, logFormat, storePath, configID string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if storePath != "" {
		c.Store.Path = storePath
	}
	if configID != "" {
		c.Store.ConfigID = configID
	}
}
