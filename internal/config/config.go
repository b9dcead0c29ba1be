package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
// The access TTL bounds how long a stolen access token stays usable;
// the refresh TTL bounds how long a session survives without activity.
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl" validate:"required,gt=0"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl" validate:"required,gt=0"`
}

// KafkaConfig contains settings for the booking event publisher.
// An empty broker list disables publishing; events are then only logged.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// TaskConfig contains settings for the background task runner and
// periodic maintenance jobs.
type TaskConfig struct {
	WorkerCount               int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize                 int `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckTaskAgeMinutes       int `mapstructure:"stuck_task_age_minutes" validate:"required,gt=0"`
	TokenPurgeIntervalMinutes int `mapstructure:"token_purge_interval_minutes" validate:"required,gt=0"`
}
