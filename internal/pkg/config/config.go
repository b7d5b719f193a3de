package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// PipelineConfig carries the sampling geometry parameters. Distances are
// in the units of the project CRS.
type PipelineConfig struct {
	BufferDistance float64 `mapstructure:"buffer_distance"`
	BufferSegments int     `mapstructure:"buffer_segments"`
	MiterLimit     float64 `mapstructure:"miter_limit"`
	SampleInterval float64 `mapstructure:"sample_interval"`
	GridSpacing    float64 `mapstructure:"grid_spacing"`
	DefaultCRS     string  `mapstructure:"default_crs"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "terra")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "terrasample")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("pipeline.buffer_distance", 2.0)
	v.SetDefault("pipeline.buffer_segments", 5)
	v.SetDefault("pipeline.miter_limit", 2.0)
	v.SetDefault("pipeline.sample_interval", 5.0)
	v.SetDefault("pipeline.grid_spacing", 5.0)
	v.SetDefault("pipeline.default_crs", "EPSG:25830")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "extraction")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TERRA_DATABASE_HOST → database.host
	v.SetEnvPrefix("TERRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Pipeline.BufferDistance <= 0 {
		errs = append(errs, "pipeline.buffer_distance must be positive")
	}
	if c.Pipeline.BufferSegments <= 0 {
		errs = append(errs, "pipeline.buffer_segments must be positive")
	}
	if c.Pipeline.MiterLimit <= 0 {
		errs = append(errs, "pipeline.miter_limit must be positive")
	}
	if c.Pipeline.SampleInterval <= 0 {
		errs = append(errs, "pipeline.sample_interval must be positive")
	}
	if c.Pipeline.GridSpacing <= 0 {
		errs = append(errs, "pipeline.grid_spacing must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// PipelineParams converts the raw config into run parameters.
func (c *Config) PipelineParams() domain.PipelineParams {
	return domain.PipelineParams{
		BufferDistance: c.Pipeline.BufferDistance,
		Segments:       c.Pipeline.BufferSegments,
		MiterLimit:     c.Pipeline.MiterLimit,
		SampleInterval: c.Pipeline.SampleInterval,
		GridSpacing:    c.Pipeline.GridSpacing,
	}
}
