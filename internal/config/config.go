package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Store backends
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultStore       = StoreSQLite
	DefaultRedisAddr   = "127.0.0.1:6379"
	DefaultPadding     = 40.0

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "PDF_TEMPLATE"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the template filler server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Directory that uploads are read from and generated documents are
	// written to
	WorkDirectory string

	// Storage configuration
	Store       string
	DataDir     string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string

	// Editor configuration
	Padding float64 // container padding in pixels used to compute the zoom

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:          ModeStdio, // Default to stdio mode for MCP compatibility
		Host:          DefaultHost,
		Port:          DefaultPort,
		WorkDirectory: currentDir,
		Store:         DefaultStore,
		DataDir:       filepath.Join(currentDir, ".pdf-template-filler"),
		RedisAddr:     DefaultRedisAddr,
		RedisPrefix:   "pdftf",
		Padding:       DefaultPadding,
		Version:       "1.0.0",
		ServerName:    "pdf-template-filler",
		LogLevel:      DefaultLogLevel,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	for _, dir := range []*string{&cfg.WorkDirectory, &cfg.DataDir} {
		if *dir == "" {
			continue
		}
		if expanded, err := filepath.Abs(*dir); err == nil {
			*dir = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.WorkDirectory)
	viper.SetDefault("store", cfg.Store)
	viper.SetDefault("datadir", cfg.DataDir)
	viper.SetDefault("redisaddr", cfg.RedisAddr)
	viper.SetDefault("redisdb", cfg.RedisDB)
	viper.SetDefault("redisprefix", cfg.RedisPrefix)
	viper.SetDefault("padding", cfg.Padding)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.WorkDirectory, "Directory for source PDFs and generated documents")
	pflag.String("store", cfg.Store, "Record store: 'memory', 'sqlite' or 'redis'")
	pflag.String("datadir", cfg.DataDir, "Directory holding the SQLite database (sqlite store only)")
	pflag.String("redisaddr", cfg.RedisAddr, "Redis address host:port (redis store only)")
	pflag.Int("redisdb", cfg.RedisDB, "Redis database number (redis store only)")
	pflag.String("redisprefix", cfg.RedisPrefix, "Prefix for Redis keys (redis store only)")
	pflag.Float64("padding", cfg.Padding, "Editor container padding in pixels")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "store", "datadir", "redisaddr",
		"redisdb", "redisprefix", "padding", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Template Filler - turn PDFs into reusable templates filled from profiles\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                      "+
			"# stdio mode, sqlite store, current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --store=memory   "+
			"# throwaway session\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --store=redis --redisaddr=cache:6379 # shared store\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081            # HTTP server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE, %s_DIR, %s_STORE, %s_DATADIR, %s_REDISADDR,\n",
			EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_LOGLEVEL, %s_MAXFILESIZE and so on for every option\n", EnvPrefix, EnvPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.WorkDirectory = viper.GetString("dir")
	cfg.Store = viper.GetString("store")
	cfg.DataDir = viper.GetString("datadir")
	cfg.RedisAddr = viper.GetString("redisaddr")
	cfg.RedisDB = viper.GetInt("redisdb")
	cfg.RedisPrefix = viper.GetString("redisprefix")
	cfg.Padding = viper.GetFloat64("padding")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.WorkDirectory == "" {
		return errors.New("working directory cannot be empty")
	}

	// Check if the working directory exists, create if it doesn't
	if _, err := os.Stat(c.WorkDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.WorkDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create working directory %s: %w", c.WorkDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access working directory %s: %w", c.WorkDirectory, err)
	}

	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.DataDir == "" {
			return errors.New("data directory cannot be empty for the sqlite store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis address cannot be empty for the redis store")
		}
		if c.RedisDB < 0 {
			return errors.New("redis database number cannot be negative")
		}
	default:
		return fmt.Errorf("invalid store: %s (must be one of: memory, sqlite, redis)", c.Store)
	}

	if c.Padding < 0 {
		return errors.New("padding cannot be negative")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the slog level matching LogLevel, or info.
func (c *Config) SlogLevel() slog.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, WorkDirectory: %s, Store: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.WorkDirectory, c.Store, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
