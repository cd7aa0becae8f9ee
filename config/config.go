package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Backend  BackendConfig  `yaml:"backend"`
	Session  SessionConfig  `yaml:"session"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Chat     ChatConfig     `yaml:"chat"`
	Trips    TripsConfig    `yaml:"trips"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// SessionConfig names the storage keys of one deployed front end. Each
// deployment uses exactly one token key.
type SessionConfig struct {
	TokenKey string `yaml:"token_key"`
	RoleKey  string `yaml:"role_key"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	FilePath   string `yaml:"file_path"`
	KeyPrefix  string `yaml:"key_prefix"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

func (s StorageConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	OrderEventsTopic string   `yaml:"order_events_topic"`
	GroupID          string   `yaml:"group_id"`
}

type ChatConfig struct {
	StreamTimeoutSeconds int `yaml:"stream_timeout_seconds"`
}

func (c ChatConfig) StreamTimeout() time.Duration {
	return time.Duration(c.StreamTimeoutSeconds) * time.Second
}

type TripsConfig struct {
	RecentLimit int `yaml:"recent_limit"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills every zero field that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 15
	}
	if c.Session.TokenKey == "" {
		c.Session.TokenKey = "access_token"
	}
	if c.Session.RoleKey == "" {
		c.Session.RoleKey = "user_role"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Kafka.OrderEventsTopic == "" {
		c.Kafka.OrderEventsTopic = "order-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "wingquest-notifier"
	}
	if c.Chat.StreamTimeoutSeconds == 0 {
		c.Chat.StreamTimeoutSeconds = 60
	}
	if c.Trips.RecentLimit == 0 {
		c.Trips.RecentLimit = 3
	}
}
