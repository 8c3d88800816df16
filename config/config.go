package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Source     SourceConfig     `yaml:"source"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Redis      RedisConfig      `yaml:"redis"`
	Poller     PollerConfig     `yaml:"poller"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the measurement response cache lifetime.
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres, mysql or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// SourceConfig describes the upstream measurement service.
type SourceConfig struct {
	BaseURL        string            `yaml:"base_url"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Timeout        time.Duration     `yaml:"-"`
	Headers        map[string]string `yaml:"headers"`
}

// MQTTConfig holds the broker settings for measurement ingestion.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`

	// DispatchTimeoutMillis bounds how long a message waits for queue space
	// before it is dropped.
	DispatchTimeoutMillis int           `yaml:"dispatch_timeout_ms"`
	DispatchTimeout       time.Duration `yaml:"-"`
}

// RedisConfig selects the shared cache backend. An empty Addr keeps the cache in process.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PollerConfig controls periodic pulls from the measurement source.
type PollerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// WorkerPoolConfig holds the configuration for the ingestion worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path, applies environment
// overrides and fills in defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.LoadFromEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv overrides file values with environment variables when set.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("SOURCE_BASE_URL"); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 5
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}

	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = 30
	}
	c.Source.Timeout = time.Duration(c.Source.TimeoutSeconds) * time.Second

	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "appliances/+/measurements"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "alarmd"
	}
	if c.MQTT.DispatchTimeoutMillis <= 0 {
		c.MQTT.DispatchTimeoutMillis = 500
	}
	c.MQTT.DispatchTimeout = time.Duration(c.MQTT.DispatchTimeoutMillis) * time.Millisecond

	if c.Poller.IntervalSeconds <= 0 {
		c.Poller.IntervalSeconds = 60
	}
	c.Poller.Interval = time.Duration(c.Poller.IntervalSeconds) * time.Second

	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}
	if c.WorkerPool.QueueSize <= 0 {
		c.WorkerPool.QueueSize = c.WorkerPool.Size
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}
