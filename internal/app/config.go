package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/klabast/wb-services/residency-counter/internal/store"
)

// Constants
const (
	DefaultPort     = 8080
	DefaultAuthFile = "auth.secret"

	// Storage drivers
	DriverFile   = "file"
	DriverSQLite = "sqlite"

	// Error messages
	ErrInvalidDateFormat = "Invalid date format (expected YYYY-MM-DD)"
	ErrInvalidYear       = "Invalid year"
	ErrInvalidMonth      = "Invalid month"
	ErrInvalidFormat     = "Invalid format"
	ErrInvalidTripID     = "Invalid trip id"
	ErrTripNotFound      = "Trip not found"
	ErrInvalidRequest    = "Invalid request body"
	ErrInternalServer    = "Internal server error"
	ErrFailedToGenerate  = "Failed to generate export"

	// ICS constants
	ICSProductID = "-//Residency Counter//Trips//EN"
	ICSTimezone  = "Europe/Paris"
)

// Config holds all settings, read from an optional YAML file and the environment
type Config struct {
	Port     int           `yaml:"port"`
	Debug    bool          `yaml:"debug"`
	AuthFile string        `yaml:"auth_file"`
	Watch    bool          `yaml:"watch"`
	Storage  StorageConfig `yaml:"storage"`
}

// StorageConfig selects where trips are persisted
type StorageConfig struct {
	Driver  string `yaml:"driver"`   // file, sqlite
	DataDir string `yaml:"data_dir"` // file driver
	DBPath  string `yaml:"db_path"`  // sqlite driver
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	dataDir := "."
	if cwd, err := os.Getwd(); err == nil {
		dataDir = cwd
	}
	return Config{
		Port:  DefaultPort,
		Watch: true,
		Storage: StorageConfig{
			Driver:  DriverFile,
			DataDir: dataDir,
			DBPath:  filepath.Join(dataDir, "residency.db"),
		},
	}
}

// LoadConfig reads path (if not empty) over the defaults, then applies environment overrides
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = getenvInt("RC_PORT", c.Port)
	c.Debug = getenvBool("RC_DEBUG", c.Debug)
	c.Watch = getenvBool("RC_WATCH", c.Watch)
	c.AuthFile = getenv("AUTH_FILE", c.AuthFile)
	c.Storage.Driver = getenv("RC_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DataDir = getenv("RC_DATA_DIR", c.Storage.DataDir)
	c.Storage.DBPath = getenv("RC_DB_PATH", c.Storage.DBPath)
}

// Validate checks the settings are usable
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the file driver")
		}
	case DriverSQLite:
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (expected file or sqlite)", c.Storage.Driver)
	}
	return nil
}

// OpenBackend opens the configured storage backend
func (c Config) OpenBackend() (store.Backend, error) {
	switch c.Storage.Driver {
	case DriverSQLite:
		return store.OpenSQLite(c.Storage.DBPath)
	default:
		return store.NewFileBackend(c.Storage.DataDir)
	}
}

// ResolveAuthFile returns the configured auth file, or auth.secret next to the binary
func (c Config) ResolveAuthFile() (string, error) {
	if c.AuthFile != "" {
		return c.AuthFile, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
