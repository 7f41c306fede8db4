package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Dictionary  DictionaryConfig  `yaml:"dictionary"`
	Tokenizer   TokenizerConfig   `yaml:"tokenizer"`
	Cleaning    CleaningConfig    `yaml:"cleaning"`
	Jobs        JobsConfig        `yaml:"jobs"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`

	// Connection pool settings
	MaxConns int `yaml:"max_conns"`
	MinConns int `yaml:"min_conns"`
}

// DictionaryConfig selects where the shorthand dictionary comes from
type DictionaryConfig struct {
	Source   string `yaml:"source"` // "file" or "postgres"
	Path     string `yaml:"path"`
	Table    string `yaml:"table"`
	Optional bool   `yaml:"optional"`
	Watch    bool   `yaml:"watch"`
}

// TokenizerConfig holds the word-boundary policy
type TokenizerConfig struct {
	WordChars   string `yaml:"word_chars"`
	StrictEdges bool   `yaml:"strict_edges"`
}

// CleaningConfig holds cleaning pipeline options
type CleaningConfig struct {
	NotesColumn   string `yaml:"notes_column"`
	NormalizeText bool   `yaml:"normalize_text"`
	ChartMaxBars  int    `yaml:"chart_max_bars"`
}

// JobsConfig holds job store configuration
type JobsConfig struct {
	Store           string        `yaml:"store"` // "memory" or "local"
	Path            string        `yaml:"path"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PerformanceConfig holds performance monitoring configuration
type PerformanceConfig struct {
	MetricsEnabled       bool          `yaml:"metrics_enabled"`
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold"`
}

const (
	DictionarySourceFile     = "file"
	DictionarySourcePostgres = "postgres"

	JobStoreMemory = "memory"
	JobStoreLocal  = "local"

	// DefaultNotesColumn is the column cleaned in tabular uploads
	DefaultNotesColumn = "Clinical Notes"
)

// LoadConfig loads configuration from environment variables.
// When CONFIG_FILE is set, the file is applied first and environment variables override it.
func LoadConfig() (*Config, error) {
	base := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, base); err != nil {
			return nil, err
		}
	}

	return applyEnv(base), nil
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxUploadBytes: 32 << 20,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "postgres",
			User:     "postgres",
			SSLMode:  "prefer",
			MaxConns: 10,
			MinConns: 2,
		},
		Dictionary: DictionaryConfig{
			Source: DictionarySourceFile,
			Path:   "fully_expanded_dataset.csv",
			Table:  "shorthand_dictionary",
		},
		Cleaning: CleaningConfig{
			NotesColumn: DefaultNotesColumn,
		},
		Jobs: JobsConfig{
			Store:           JobStoreMemory,
			Path:            "./jobs",
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Performance: PerformanceConfig{
			MetricsEnabled:       true,
			SlowRequestThreshold: 2 * time.Second,
		},
	}
}

func applyEnv(c *Config) *Config {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getDurationEnv("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.MaxUploadBytes = getInt64Env("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getIntEnv("DB_PORT", c.Database.Port)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxConns = getIntEnv("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getIntEnv("DB_MIN_CONNS", c.Database.MinConns)

	c.Dictionary.Source = getEnv("DICTIONARY_SOURCE", c.Dictionary.Source)
	c.Dictionary.Path = getEnv("DICTIONARY_PATH", c.Dictionary.Path)
	c.Dictionary.Table = getEnv("DICTIONARY_TABLE", c.Dictionary.Table)
	c.Dictionary.Optional = getBoolEnv("DICTIONARY_OPTIONAL", c.Dictionary.Optional)
	c.Dictionary.Watch = getBoolEnv("DICTIONARY_WATCH", c.Dictionary.Watch)

	c.Tokenizer.WordChars = getEnv("TOKENIZER_WORD_CHARS", c.Tokenizer.WordChars)
	c.Tokenizer.StrictEdges = getBoolEnv("TOKENIZER_STRICT_EDGES", c.Tokenizer.StrictEdges)

	// An explicitly empty CLEAN_NOTES_COLUMN means "every cell"
	if value, ok := os.LookupEnv("CLEAN_NOTES_COLUMN"); ok {
		c.Cleaning.NotesColumn = value
	}
	c.Cleaning.NormalizeText = getBoolEnv("CLEAN_NORMALIZE_TEXT", c.Cleaning.NormalizeText)
	c.Cleaning.ChartMaxBars = getIntEnv("CHART_MAX_BARS", c.Cleaning.ChartMaxBars)

	c.Jobs.Store = getEnv("JOB_STORE", c.Jobs.Store)
	c.Jobs.Path = getEnv("JOB_STORE_PATH", c.Jobs.Path)
	c.Jobs.TTL = getDurationEnv("JOB_TTL", c.Jobs.TTL)
	c.Jobs.CleanupInterval = getDurationEnv("JOB_CLEANUP_INTERVAL", c.Jobs.CleanupInterval)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.Performance.MetricsEnabled = getBoolEnv("METRICS_ENABLED", c.Performance.MetricsEnabled)
	c.Performance.SlowRequestThreshold = getDurationEnv("SLOW_REQUEST_THRESHOLD", c.Performance.SlowRequestThreshold)

	return c
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets duration from environment variable with default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets integer from environment variable with default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64Env gets a 64-bit integer from environment variable with default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets boolean from environment variable with default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return &ConfigError{Field: "SERVER_PORT", Message: "server port is required"}
	}
	if c.Server.MaxUploadBytes <= 0 {
		return &ConfigError{Field: "MAX_UPLOAD_BYTES", Message: "must be positive"}
	}

	switch c.Dictionary.Source {
	case DictionarySourceFile:
		if c.Dictionary.Path == "" {
			return &ConfigError{Field: "DICTIONARY_PATH", Message: "dictionary path is required for file source"}
		}
	case DictionarySourcePostgres:
		if c.Dictionary.Table == "" {
			return &ConfigError{Field: "DICTIONARY_TABLE", Message: "dictionary table is required for postgres source"}
		}
	default:
		return &ConfigError{Field: "DICTIONARY_SOURCE", Message: "must be \"file\" or \"postgres\""}
	}

	switch c.Jobs.Store {
	case JobStoreMemory:
	case JobStoreLocal:
		if c.Jobs.Path == "" {
			return &ConfigError{Field: "JOB_STORE_PATH", Message: "job store path is required for local store"}
		}
	default:
		return &ConfigError{Field: "JOB_STORE", Message: "must be \"memory\" or \"local\""}
	}

	if c.Jobs.TTL <= 0 {
		return &ConfigError{Field: "JOB_TTL", Message: "must be positive"}
	}
	if c.Jobs.CleanupInterval <= 0 {
		return &ConfigError{Field: "JOB_CLEANUP_INTERVAL", Message: "must be positive"}
	}
	if c.Cleaning.ChartMaxBars < 0 {
		return &ConfigError{Field: "CHART_MAX_BARS", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
