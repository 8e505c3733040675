package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPServer HTTPServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Metrics    MetricsConfig
	Broadcast  BroadcastConfig
	Alerts     AlertsConfig
	SMTP       SMTPConfig
}

type HTTPServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string // "postgres" or "memory"
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Enabled       bool
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicEvents   string
	NumPartitions int
}

type MetricsConfig struct {
	FPSWindowSize  int
	PrometheusPort int
}

type BroadcastConfig struct {
	Enabled        bool
	MaxClients     int
	ClientBuffer   int
	SinkQueueSize  int
	PublishTimeout time.Duration
	HistoryOnJoin  int
}

type AlertsConfig struct {
	Enabled     bool
	EmailNotify bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		HTTPServer: HTTPServerConfig{
			Port:            getEnvAsInt("HTTP_PORT", 5000),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORE_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "fleetzone_user"),
			Password: getEnv("DB_PASSWORD", "fleetzone_pass"),
			DBName:   getEnv("DB_NAME", "fleetzone_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:       getEnvAsBool("REDIS_PUBLISH_ENABLED", false),
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "fleetzone"),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvAsBool("KAFKA_EXPORT_ENABLED", false),
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicEvents:   getEnv("KAFKA_TOPIC_EVENTS", "fleetzone.events"),
			NumPartitions: getEnvAsInt("KAFKA_NUM_PARTITIONS", 4),
		},
		Metrics: MetricsConfig{
			FPSWindowSize:  getEnvAsInt("METRICS_FPS_WINDOW", 60),
			PrometheusPort: getEnvAsInt("PROMETHEUS_PORT", 9100),
		},
		Broadcast: BroadcastConfig{
			Enabled:        getEnvAsBool("BROADCAST_ENABLED", true),
			MaxClients:     getEnvAsInt("BROADCAST_MAX_CLIENTS", 256),
			ClientBuffer:   getEnvAsInt("BROADCAST_CLIENT_BUFFER", 256),
			SinkQueueSize:  getEnvAsInt("BROADCAST_SINK_QUEUE", 1024),
			PublishTimeout: getEnvAsDuration("BROADCAST_PUBLISH_TIMEOUT", 5*time.Second),
			HistoryOnJoin:  getEnvAsInt("BROADCAST_HISTORY_ON_JOIN", 50),
		},
		Alerts: AlertsConfig{
			Enabled:     getEnvAsBool("ALERTS_ENABLED", true),
			EmailNotify: getEnvAsBool("NOTIFY_EMAIL_ENABLED", false),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "fleetzone@example.com"),
			To:       getEnv("SMTP_TO", "ops@example.com"),
		},
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "memory" {
		return nil, fmt.Errorf("unsupported store driver: %s", config.Database.Driver)
	}
	if config.Metrics.FPSWindowSize <= 0 {
		return nil, fmt.Errorf("METRICS_FPS_WINDOW must be positive, got %d", config.Metrics.FPSWindowSize)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
