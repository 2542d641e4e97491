package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const envPrefix = "STARTERDB_"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Logging  LoggingConfig  `json:"logging"  yaml:"logging"`
	Notify   NotifyConfig   `json:"notify"   yaml:"notify"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path           string `json:"path"            yaml:"path"            env:"DB_PATH"            envDefault:"~/.local/share/starterdb/RNStarter.db"`
	Engine         string `json:"engine"          yaml:"engine"          env:"DB_ENGINE"          envDefault:"sqlite"` // sqlite, duckdb
	Debug          bool   `json:"debug"           yaml:"debug"           env:"SQLITE_DEBUG_MODE"  envDefault:"false"`  // trace every statement
	DropTables     bool   `json:"drop_tables"     yaml:"drop_tables"     env:"SQLITE_DROP_TABLES" envDefault:"false"`  // drop all tables before creating them on open
	MaxConnections int    `json:"max_connections" yaml:"max_connections" env:"DB_MAX_CONNECTIONS" envDefault:"1"`
	QueryTimeout   string `json:"query_timeout"   yaml:"query_timeout"   env:"DB_QUERY_TIMEOUT"   envDefault:"30s"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level     string `json:"level"      yaml:"level"      env:"LOG_LEVEL"      envDefault:"info"`                              // debug, info, warn, error
	Format    string `json:"format"     yaml:"format"     env:"LOG_FORMAT"     envDefault:"text"`                              // text, json
	Output    string `json:"output"     yaml:"output"     env:"LOG_OUTPUT"     envDefault:"stderr"`                            // stdout, stderr, file
	File      string `json:"file"       yaml:"file"       env:"LOG_FILE"       envDefault:"~/.config/starterdb/logs/app.log"` // log file path when output is file
	AddSource bool   `json:"add_source" yaml:"add_source" env:"LOG_ADD_SOURCE" envDefault:"false"`                             // add source file and line info to logs
}

// NotifyConfig controls where non-fatal failures are surfaced to the operator
type NotifyConfig struct {
	Output string `json:"output" yaml:"output" env:"NOTIFY_OUTPUT" envDefault:"stderr"` // stderr, log, none
	Color  bool   `json:"color"  yaml:"color"  env:"NOTIFY_COLOR"  envDefault:"true"`
}

// DefaultConfig returns the configuration with every default applied and no
// environment or file overrides.
func DefaultConfig() *Config {
	cfg := &Config{}
	_ = env.ParseWithOptions(cfg, env.Options{
		Prefix:      envPrefix,
		Environment: map[string]string{},
	})

	return cfg
}

// LoadConfig loads configuration from file, environment variables, and command-line flags
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag overrides
func LoadConfigWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	config := DefaultConfig()

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnvironmentOverrides(config); err != nil {
		return nil, err
	}

	if flagOverrides != nil {
		if err := applyFlagOverrides(config, flagOverrides); err != nil {
			return nil, fmt.Errorf("failed to apply flag overrides: %w", err)
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvironmentOverrides overwrites fields whose variables are set in the
// process environment. Unset variables leave file values untouched.
func applyEnvironmentOverrides(config *Config) error {
	var fromEnv Config
	if err := env.ParseWithOptions(&fromEnv, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment variables: %w", err)
	}

	set := make(map[string]bool)

	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, envPrefix) {
			set[strings.TrimPrefix(name, envPrefix)] = true
		}
	}

	copyIfSet(reflect.ValueOf(config).Elem(), reflect.ValueOf(&fromEnv).Elem(), set)

	return nil
}

func copyIfSet(target, source reflect.Value, set map[string]bool) {
	for i := range source.NumField() {
		field := source.Type().Field(i)
		if field.Type.Kind() == reflect.Struct {
			copyIfSet(target.Field(i), source.Field(i), set)
			continue
		}

		if name := field.Tag.Get("env"); name != "" && set[name] {
			target.Field(i).Set(source.Field(i))
		}
	}
}

// loadConfigFromFile loads configuration from a JSON or YAML file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fileConfig)
	default:
		err = json.Unmarshal(data, &fileConfig)
	}

	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) error {
	for key, value := range overrides {
		switch key {
		case "db-path":
			if str, ok := value.(string); ok && str != "" {
				config.Database.Path = str
			}
		case "engine":
			if str, ok := value.(string); ok && str != "" {
				config.Database.Engine = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "debug":
			if b, ok := value.(bool); ok {
				config.Database.Debug = b
			}
		case "drop-tables":
			if b, ok := value.(bool); ok {
				config.Database.DropTables = b
			}
		default:
			return fmt.Errorf("unknown flag override: %s", key)
		}
	}

	return nil
}

// mergeConfigs merges source configuration into target configuration.
// Zero values in source never overwrite target, except booleans.
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	validEngines := map[string]bool{
		"sqlite": true, "duckdb": true,
	}
	if !validEngines[strings.ToLower(config.Database.Engine)] {
		return fmt.Errorf("invalid database engine: %s (must be sqlite or duckdb)", config.Database.Engine)
	}

	validNotifyOutputs := map[string]bool{
		"stderr": true, "log": true, "none": true,
	}
	if !validNotifyOutputs[strings.ToLower(config.Notify.Output)] {
		return fmt.Errorf("invalid notify output: %s (must be stderr, log, or none)", config.Notify.Output)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}

	if _, err := time.ParseDuration(config.Database.QueryTimeout); err != nil {
		return fmt.Errorf("invalid query timeout: %s", config.Database.QueryTimeout)
	}

	if config.Database.MaxConnections <= 0 {
		return fmt.Errorf(
			"database max connections must be positive: %d",
			config.Database.MaxConnections,
		)
	}

	return nil
}

// QueryTimeoutDuration returns the parsed query timeout, falling back to 30s.
func (c DatabaseConfig) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}

	return d
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigPath returns the path of the configuration file, honouring
// STARTERDB_CONFIG.
func ConfigPath() string {
	if configPath := os.Getenv(envPrefix + "CONFIG"); configPath != "" {
		return ExpandPath(configPath)
	}

	return filepath.Join(GetConfigDir(), "config.json")
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Database.Path = ExpandPath(c.Database.Path)
	c.Logging.File = ExpandPath(c.Logging.File)
}

// GetConfigDir returns the configuration directory
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".config/starterdb"
	}

	return filepath.Join(homeDir, ".config", "starterdb")
}
