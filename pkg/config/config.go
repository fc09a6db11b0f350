package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port string `mapstructure:"port"`

	Mongo  DatabaseConfig `mapstructure:"mongo"`
	Redis  RedisConfig    `mapstructure:"redis"`
	Rabbit DatabaseConfig `mapstructure:"rabbit"`
	Kafka  KafkaConfig    `mapstructure:"kafka"`

	AuthService ServiceConfig `mapstructure:"auth"`

	Cache CacheConfig `mapstructure:"cache"`
	Queue QueueConfig `mapstructure:"queue"`
}

// ServiceConfig definition service port & name
type ServiceConfig struct {
	Port string `mapstructure:"service_port"`
	Name string `mapstructure:"service_name"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	RedisDB int    `mapstructure:"redis_db"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	UserTopic    string   `mapstructure:"user_topic"`
	MessageTopic string   `mapstructure:"message_topic"`
	GroupID      string   `mapstructure:"group_id"`

	RetryInterval int `mapstructure:"retry_interval"`
	RetryCount    int `mapstructure:"retry_count"`
}

// CacheConfig definition two tier cache setting
type CacheConfig struct {
	LocalSize int           `mapstructure:"local_size"`
	LocalTTL  time.Duration `mapstructure:"local_ttl"`
	SharedTTL time.Duration `mapstructure:"shared_ttl"`
}

// QueueConfig definition job queue retry setting
type QueueConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
