package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobchat/cli/internal/storage"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory holding config, data and logs
const DirName = ".bobchat"

// Config holds application configuration
type Config struct {
	Backend struct {
		BaseURL  string        `yaml:"base_url"`
		ThreadID string        `yaml:"thread_id"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"backend"`
	Storage struct {
		Driver      string `yaml:"driver"`
		Path        string `yaml:"path"`
		DSN         string `yaml:"dsn,omitempty"`
		RedisAddr   string `yaml:"redis_addr,omitempty"`
		RedisPrefix string `yaml:"redis_prefix,omitempty"`
	} `yaml:"storage"`
	Paths struct {
		DataDir       string `yaml:"data_dir"`
		AttachmentDir string `yaml:"attachment_dir"`
		DownloadDir   string `yaml:"download_dir"`
	} `yaml:"paths"`
	Log struct {
		Level  string `yaml:"level"`
		File   string `yaml:"file"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Dir returns ~/.bobchat
func Dir() string {
	return filepath.Join(homeDir(), DirName)
}

// Path returns the default config file location
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration from the default file or returns defaults
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile loads configuration from path. A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default file
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes configuration to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Backend.BaseURL = "http://127.0.0.1:8000"
	cfg.Backend.ThreadID = "default-thread"
	cfg.Backend.Timeout = 0

	dir := Dir()
	cfg.Storage.Driver = "bolt"
	cfg.Storage.Path = filepath.Join(dir, "bobchat.db")
	cfg.Storage.RedisPrefix = "bobchat:"

	cfg.Paths.DataDir = dir
	cfg.Paths.AttachmentDir = filepath.Join(dir, "attachments")
	cfg.Paths.DownloadDir = filepath.Join(homeDir(), "Downloads")

	cfg.Log.Level = "info"
	cfg.Log.File = filepath.Join(dir, "bobchat.log")
	cfg.Log.Format = "text"

	return cfg
}

// StorageOptions converts the storage section for storage.Open
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      c.Storage.Driver,
		Path:        c.Storage.Path,
		DSN:         c.Storage.DSN,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}

// Override applies flag and environment values bound in v on top of the file
func (c *Config) Override(v *viper.Viper) {
	if s := v.GetString("base-url"); s != "" {
		c.Backend.BaseURL = s
	}
	if s := v.GetString("thread-id"); s != "" {
		c.Backend.ThreadID = s
	}
	if v.IsSet("timeout") {
		c.Backend.Timeout = v.GetDuration("timeout")
	}
	if s := v.GetString("storage"); s != "" {
		c.Storage.Driver = s
	}
	if s := v.GetString("storage-path"); s != "" {
		c.Storage.Path = s
	}
	if s := v.GetString("dsn"); s != "" {
		c.Storage.DSN = s
	}
	if s := v.GetString("redis-addr"); s != "" {
		c.Storage.RedisAddr = s
	}
	if v.GetBool("ephemeral") {
		c.Storage.Driver = "memory"
	}
	if s := v.GetString("log-level"); s != "" {
		c.Log.Level = s
	}
	if s := v.GetString("log-file"); s != "" {
		c.Log.File = s
	}
	if s := v.GetString("log-format"); s != "" {
		c.Log.Format = s
	}
}

// Redacted returns a copy safe to print, with the DSN password hidden
func (c *Config) Redacted() *Config {
	out := *c
	out.Storage.DSN = RedactDSN(c.Storage.DSN)
	return &out
}

// RedactDSN hides the password part of a connection string
func RedactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon] + ":****"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}
