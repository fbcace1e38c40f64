package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// serviceNamePattern is the allowed shape for the discovery service name.
// The value is embedded into a "_<name>._tcp" service type and must
// follow DNS-SD label rules.
var serviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,14}$`)

type Config struct {
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	// DataDir holds store.json, queue.json and the recording audio files.
	DataDir string `yaml:"data_dir"`
	// BindPort of 0 asks the OS for a free port; the bound port is
	// advertised via discovery either way.
	BindPort int `yaml:"bind_port"`
	// RemoteURL is the server base URL the client falls back to when
	// discovery is skipped.
	RemoteURL string `yaml:"remote_url"`
	LogDir    string `yaml:"log_dir"`

	IdleTimeout           time.Duration `yaml:"idle_timeout"`
	MaxConnectionDuration time.Duration `yaml:"max_connection_duration"`
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:           getEnv("RECORDINGS_SERVICE_NAME", "recordings"),
		Version:               getEnv("RECORDINGS_VERSION", "1.0"),
		Environment:           getEnv("RECORDINGS_ENV", "dev"),
		DataDir:               getEnv("RECORDINGS_DATA_DIR", defaultDataDir()),
		BindPort:              getEnvInt("RECORDINGS_PORT", 0),
		RemoteURL:             getEnv("RECORDINGS_REMOTE_URL", fmt.Sprintf("http://localhost:%d", DefaultRemotePort)),
		LogDir:                getEnv("RECORDINGS_LOG_DIR", ""),
		IdleTimeout:           getEnvDuration("RECORDINGS_IDLE_TIMEOUT", DefaultIdleTimeout),
		MaxConnectionDuration: getEnvDuration("RECORDINGS_MAX_CONNECTION_DURATION", DefaultMaxConnectionDuration),
	}

	// Optional YAML overlay for settings that are awkward as env vars.
	if path := os.Getenv("RECORDINGS_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServiceName, validation.Required, validation.Match(serviceNamePattern)),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.BindPort, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.RemoteURL, validation.Required, is.URL),
		validation.Field(&c.IdleTimeout, validation.Min(time.Second)),
		validation.Field(&c.MaxConnectionDuration, validation.Min(time.Second)),
	)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "recordings-data"
	}
	return filepath.Join(home, ".local", "share", "recordings")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
