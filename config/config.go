package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
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
	Brokers            []string `yaml:"brokers"`
	LifecycleTopic     string   `yaml:"lifecycle_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type GatewayConfig struct {
	AppID       int    `yaml:"app_id"`
	Key1        string `yaml:"key1"` // signs outgoing order requests
	Key2        string `yaml:"key2"` // verifies callback payloads
	CreateURL   string `yaml:"create_url"`
	QueryURL    string `yaml:"query_url"`
	CallbackURL string `yaml:"callback_url"`
}

type BookingConfig struct {
	LockTTLSeconds      int    `yaml:"lock_ttl_seconds"`
	ExpiryBufferSeconds int    `yaml:"expiry_buffer_seconds"`
	GridCacheTTLSeconds int    `yaml:"grid_cache_ttl_seconds"`
	Timezone            string `yaml:"timezone"`
}

type WorkerConfig struct {
	ExpirySweepMinutes     int `yaml:"expiry_sweep_minutes"`
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes"`
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

	return &cfg, nil
}
