package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// Dir is the per-project configuration directory
	Dir = ".mgaq"
	// FileName is the configuration file inside Dir
	FileName = "config.json"
	// EnvPrefix prefixes environment overrides, e.g. MGAQ_LOGGING_LEVEL
	EnvPrefix = "MGAQ"

	currentVersion = 1
)

// Config represents the complete mgaq configuration
type Config struct {
	Version int           `json:"version" mapstructure:"version" toml:"version"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging"`
	Output  OutputConfig  `json:"output" mapstructure:"output" toml:"output"`
	Scan    ScanConfig    `json:"scan" mapstructure:"scan" toml:"scan"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format" toml:"format"` // text, json
	Level  string `json:"level" mapstructure:"level" toml:"level"`    // debug, info, warn, error
	// File, when set, receives a copy of every log record.
	File string `json:"file,omitempty" mapstructure:"file" toml:"file,omitempty"`
}

// OutputConfig contains result rendering settings
type OutputConfig struct {
	Format string `json:"format" mapstructure:"format" toml:"format"` // human, json
}

// ScanConfig controls batch scanning of script files
type ScanConfig struct {
	Extensions       []string `json:"extensions" mapstructure:"extensions" toml:"extensions"`
	Ignore           []string `json:"ignore" mapstructure:"ignore" toml:"ignore"`
	Concurrency      int      `json:"concurrency" mapstructure:"concurrency" toml:"concurrency"`
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes" toml:"maxFileSizeBytes"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: currentVersion,
		Logging: LoggingConfig{
			Format: "text",
			Level:  "warn",
		},
		Output: OutputConfig{
			Format: "human",
		},
		Scan: ScanConfig{
			Extensions:       []string{".ps1", ".psm1"},
			Ignore:           []string{".git", "node_modules", "bin", "obj"},
			Concurrency:      4,
			MaxFileSizeBytes: 2 * 1024 * 1024,
		},
	}
}

// LoadConfig loads .mgaq/config.json under root. A missing file yields the
// defaults; environment overrides apply either way.
func LoadConfig(root string) (*Config, error) {
	v := newViper()
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, Dir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return unmarshal(v)
}

// LoadConfigFile loads configuration from an explicit path. The format is
// taken from the file extension (json, yaml, toml).
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("scan.extensions", def.Scan.Extensions)
	v.SetDefault("scan.ignore", def.Scan.Ignore)
	v.SetDefault("scan.concurrency", def.Scan.Concurrency)
	v.SetDefault("scan.maxFileSizeBytes", def.Scan.MaxFileSizeBytes)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the configuration file path under root
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// Save writes the configuration to .mgaq/config.json under root
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(filepath.Join(root, Dir), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(Path(root), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != currentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be text or json"}
	}
	switch strings.ToLower(c.Output.Format) {
	case "human", "json":
	default:
		return &ConfigError{Field: "output.format", Message: "must be human or json"}
	}
	if c.Scan.Concurrency < 1 {
		return &ConfigError{Field: "scan.concurrency", Message: "must be at least 1"}
	}
	if c.Scan.MaxFileSizeBytes < 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
