package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		MaxUploadBytes int64    `yaml:"max_upload_bytes"`
		CORSOrigins    []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	MLService struct {
		URL                   string `yaml:"url"`
		RequestTimeoutSeconds int64  `yaml:"request_timeout_seconds"`
		HealthTimeoutSeconds  int64  `yaml:"health_timeout_seconds"`
		ProbeTimeoutSeconds   int64  `yaml:"probe_timeout_seconds"`
		MaxAttempts           int    `yaml:"max_attempts"`
		BackoffBaseMillis     int64  `yaml:"backoff_base_ms"`
		PreflightHealthCheck  *bool  `yaml:"preflight_health_check"`
	} `yaml:"ml_service"`
	JWT struct {
		Key           string `yaml:"key"`
		Issuer        string `yaml:"issuer"`
		Audience      string `yaml:"audience"`
		ExpiryMinutes int64  `yaml:"expiry_minutes"`
	} `yaml:"jwt"`
	Logging struct {
		Mode string `yaml:"mode"`
	} `yaml:"logging"`
	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		Endpoint    string  `yaml:"endpoint"`
		ServiceName string  `yaml:"service_name"`
		SampleRatio float64 `yaml:"sample_ratio"`
		Insecure    bool    `yaml:"insecure"`
	} `yaml:"tracing"`
}

// LoadConfig reads configuration from the specified YAML file, applies
// environment overrides and defaults, and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.ApplyEnv()
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides file values with non-blank environment variables.
// JWT_KEY always wins over jwt.key when set.
func (c *Config) ApplyEnv() {
	if v := envValue("JWT_KEY"); v != "" {
		c.JWT.Key = v
	}
	if v := envValue("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := envValue("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := envValue("ML_SERVICE_URL"); v != "" {
		c.MLService.URL = v
	}
	if v := envValue("SERVER_PORT"); v != "" {
		c.Server.Port = v
	}
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 10_000_000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.MLService.URL = strings.TrimRight(strings.TrimSpace(c.MLService.URL), "/")
	if c.MLService.RequestTimeoutSeconds <= 0 {
		c.MLService.RequestTimeoutSeconds = 180
	}
	if c.MLService.HealthTimeoutSeconds <= 0 {
		c.MLService.HealthTimeoutSeconds = 3
	}
	if c.MLService.ProbeTimeoutSeconds <= 0 {
		c.MLService.ProbeTimeoutSeconds = 2
	}
	if c.MLService.MaxAttempts == 0 {
		c.MLService.MaxAttempts = 5
	}
	if c.MLService.BackoffBaseMillis == 0 {
		c.MLService.BackoffBaseMillis = 500
	}
	if c.MLService.PreflightHealthCheck == nil {
		enabled := true
		c.MLService.PreflightHealthCheck = &enabled
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "deepfakenews-detectionapp"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "deepfakenews-detectionapp-clients"
	}
	if c.JWT.ExpiryMinutes <= 0 {
		c.JWT.ExpiryMinutes = 24 * 60
	}
	if c.Logging.Mode == "" {
		c.Logging.Mode = "development"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "deepfakenews-backend"
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
}

// Validate reports configuration problems that must stop the process.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Key) == "" {
		errs = append(errs, errors.New("jwt signing key is not configured (set jwt.key or JWT_KEY)"))
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database url is not configured"))
	}
	if c.MLService.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("ml_service.max_attempts must be at least 1, got %d", c.MLService.MaxAttempts))
	}
	if c.MLService.BackoffBaseMillis < 0 {
		errs = append(errs, fmt.Errorf("ml_service.backoff_base_ms must not be negative, got %d", c.MLService.BackoffBaseMillis))
	}
	return errors.Join(errs...)
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.MLService.RequestTimeoutSeconds) * time.Second
}

func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.MLService.HealthTimeoutSeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.MLService.ProbeTimeoutSeconds) * time.Second
}

func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.MLService.BackoffBaseMillis) * time.Millisecond
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpiryMinutes) * time.Minute
}

func (c *Config) PreflightEnabled() bool {
	return c.MLService.PreflightHealthCheck == nil || *c.MLService.PreflightHealthCheck
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
