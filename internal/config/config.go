package config

// Config holds the optional tool configuration. Retention behavior itself
// is controlled entirely by dataset properties; this only covers how the
// tool reaches the zfs command and how it logs.
type Config struct {
	ZFS     ZFSConfig     `yaml:"zfs"`
	Logging LoggingConfig `yaml:"logging"`
}

type ZFSConfig struct {
	Binary   string `yaml:"binary"`   // path to the zfs executable
	Property string `yaml:"property"` // retention policy property key
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
}

// DefaultPath is where Load looks when no config flag is given.
const DefaultPath = "/etc/zfs-autosnap.yaml"

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ZFS: ZFSConfig{
			Binary:   "zfs",
			Property: "at.rollc.at:snapkeep",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
