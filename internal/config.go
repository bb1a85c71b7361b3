package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client connection settings.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

const DEFAULT_HOST = "127.0.0.1"
const DEFAULT_PORT = 6969
const DEFAULT_TIMEOUT = 5 * time.Second

func DefaultConfig() *Config {
	return &Config{
		Host:    DEFAULT_HOST,
		Port:    DEFAULT_PORT,
		Timeout: DEFAULT_TIMEOUT,
	}
}

const (
	OneMegabyte = 1024 * 1024

	DefaultDirectoryPath  = "./"
	DefaultDataFileSizeMB = 64
	MinimumDataFileSizeMB = 1
	MaximumDataFileSizeMB = 256

	DefaultSyncInterval = 15
	MinimumSyncInterval = 1

	DefaultLogLevel = "info"
)

// ServerConfig holds the settings of a bitcask server instance. It can be
// loaded from a YAML file and overridden by command line flags.
type ServerConfig struct {
	DirectoryPath  string `yaml:"dir"`
	DataFileSizeMB int    `yaml:"datafile_size_mb"`
	Port           int    `yaml:"port"`
	SyncInterval   uint   `yaml:"sync_interval"`
	SyncOnWrite    bool   `yaml:"sync_on_write"`
	KeyDirShards   int    `yaml:"keydir_shards"`
	LogLevel       string `yaml:"log_level"`
	MetricsAddr    string `yaml:"metrics_addr"`
}

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		DirectoryPath:  DefaultDirectoryPath,
		DataFileSizeMB: DefaultDataFileSizeMB,
		Port:           DEFAULT_PORT,
		SyncInterval:   DefaultSyncInterval,
		LogLevel:       DefaultLogLevel,
	}
}

// LoadServerConfig reads a YAML config file on top of the defaults.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c *ServerConfig) Validate() error {
	if c.DirectoryPath == "" {
		return fmt.Errorf("dir must not be empty")
	}
	if c.DataFileSizeMB < MinimumDataFileSizeMB || c.DataFileSizeMB > MaximumDataFileSizeMB {
		return fmt.Errorf("datafile_size_mb must be between %d and %d, got %d", MinimumDataFileSizeMB, MaximumDataFileSizeMB, c.DataFileSizeMB)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.SyncInterval < MinimumSyncInterval {
		return fmt.Errorf("sync_interval must be at least %d seconds", MinimumSyncInterval)
	}
	return nil
}

// MaximumDatafileSize is the rotation threshold in bytes.
func (c *ServerConfig) MaximumDatafileSize() int {
	return c.DataFileSizeMB * OneMegabyte
}
