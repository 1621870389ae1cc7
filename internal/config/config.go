package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers           []string
	KafkaPositionTopic     string
	KafkaNotificationTopic string
	KafkaGroupID           string
	HTTPAddr               string
	LogLevel               string
	LogFormat              string
	ShutdownTimeout        time.Duration

	BatchSize int

	// EventFile points at the YAML event definition to run.
	EventFile string
	// NearEventWindow is the symmetric window around the event start inside
	// which warming evaluation is active.
	NearEventWindow time.Duration
	// LiveFeedInterval is the push period of the websocket state feed.
	LiveFeedInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	nearWindow, err := parseDurationEnv("NEAR_EVENT_WINDOW", "12h")
	if err != nil {
		return nil, err
	}
	feedInterval, err := parseDurationEnv("LIVE_FEED_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	batchSize, err := parseIntEnv("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:           parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPositionTopic:     envOrDefault("KAFKA_POSITION_TOPIC", "user-positions"),
		KafkaNotificationTopic: envOrDefault("KAFKA_NOTIFICATION_TOPIC", "wave-notifications"),
		KafkaGroupID:           envOrDefault("KAFKA_GROUP_ID", "wave-engine"),
		HTTPAddr:               envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:               envOrDefault("LOG_LEVEL", "info"),
		LogFormat:              envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:        shutdownTimeout,
		BatchSize:              batchSize,
		EventFile:              envOrDefault("EVENT_FILE", "event.yaml"),
		NearEventWindow:        nearWindow,
		LiveFeedInterval:       feedInterval,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaPositionTopic == "" {
		return nil, errors.New("KAFKA_POSITION_TOPIC is required")
	}
	if cfg.KafkaNotificationTopic == "" {
		return nil, errors.New("KAFKA_NOTIFICATION_TOPIC is required")
	}
	if cfg.EventFile == "" {
		return nil, errors.New("EVENT_FILE is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
