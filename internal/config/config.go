package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type JWTConfig struct {
	Secret         string
	AllowAnonymous bool
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	SendQueueSize   int
	AllowedOrigins  []string
}

type RedisConfig struct {
	URL          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func LoadConfig() (*Config, error) {
	// Viper setup
	once.Do(func() {
		viper.SetDefault("NOTIFY_PORT", "8080")
		viper.SetDefault("NOTIFY_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("NOTIFY_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("NOTIFY_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("NOTIFY_JWT_SECRET", "secret")
		viper.SetDefault("NOTIFY_ALLOW_ANONYMOUS", false)
		viper.SetDefault("NOTIFY_WS_READ_BUFFER", 1024)
		viper.SetDefault("NOTIFY_WS_WRITE_BUFFER", 1024)
		viper.SetDefault("NOTIFY_WS_SEND_QUEUE", 256)
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("KAFKA_TOPIC", "notifications")
		viper.SetDefault("KAFKA_GROUP_ID", "notify-service")
		viper.AutomaticEnv()

		ConfigInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("NOTIFY_HOST"),
				Port:         viper.GetString("NOTIFY_PORT"),
				ReadTimeout:  viper.GetDuration("NOTIFY_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("NOTIFY_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("NOTIFY_IDLE_TIMEOUT"),
			},
			JWT: JWTConfig{
				Secret:         viper.GetString("NOTIFY_JWT_SECRET"),
				AllowAnonymous: viper.GetBool("NOTIFY_ALLOW_ANONYMOUS"),
			},
			WebSocket: WebSocketConfig{
				ReadBufferSize:  viper.GetInt("NOTIFY_WS_READ_BUFFER"),
				WriteBufferSize: viper.GetInt("NOTIFY_WS_WRITE_BUFFER"),
				SendQueueSize:   viper.GetInt("NOTIFY_WS_SEND_QUEUE"),
				AllowedOrigins:  splitList(viper.GetString("NOTIFY_ALLOWED_ORIGINS")),
			},
			Redis: RedisConfig{
				URL:          viper.GetString("REDIS_URL"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			Kafka: KafkaConfig{
				Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
				Topic:   viper.GetString("KAFKA_TOPIC"),
				GroupID: viper.GetString("KAFKA_GROUP_ID"),
			},
		}
	})

	return ConfigInstance, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
