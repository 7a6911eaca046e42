package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the advisory service. Everything is
// read from the environment once at startup; a .env file may supply the
// variables in development.
type Config struct {
	HTTPAddr string // address:port for the HTTP server
	LogLevel string // zerolog level name

	Timezone string // IANA zone used to resolve the time-of-day period

	Policy               string // selection policy: all | top_k_diverse | single_most_severe
	TopK                 int    // category cap for top_k_diverse
	MergeRecommendations bool   // collapse recommendations into one merged entry

	HistoryWindow int // prior readings consulted by trend rules

	DBPath string // sqlite database file

	KafkaBrokers  []string // empty disables advisory publishing
	KafkaTopic    string
	PublishBuffer int

	MQTTBroker   string // tcp://host:port; empty disables sensor ingest
	MQTTTopic    string
	MQTTClientID string

	MonitorSchedule  string        // cron spec for the periodic assessment
	MonitorStaleness time.Duration // readings older than this are skipped

	AllowedOrigins []string // CORS origins for the HTTP layer
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:             getEnv("ADVISOR_HTTP_ADDR", ":8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Timezone:             getEnv("ADVISOR_TIMEZONE", "UTC"),
		Policy:               getEnv("ADVISOR_POLICY", "all"),
		TopK:                 getEnvInt("ADVISOR_TOP_K", 2),
		MergeRecommendations: getEnvBool("ADVISOR_MERGE_RECOMMENDATIONS", false),
		HistoryWindow:        getEnvInt("ADVISOR_HISTORY_WINDOW", 10),
		DBPath:               getEnv("ADVISOR_DB_PATH", "advisor.db"),
		KafkaBrokers:         splitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "water-quality.advisories"),
		PublishBuffer:        getEnvInt("ADVISOR_PUBLISH_BUFFER", 256),
		MQTTBroker:           os.Getenv("MQTT_BROKER"),
		MQTTTopic:            getEnv("MQTT_TOPIC", "sensors/water-quality"),
		MQTTClientID:         getEnv("MQTT_CLIENT_ID", "advisord"),
		MonitorSchedule:      getEnv("MONITOR_SCHEDULE", "@every 5m"),
		MonitorStaleness:     getEnvDuration("MONITOR_STALENESS", 30*time.Minute),
		AllowedOrigins:       splitAndTrim(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	if cfg.TopK < 1 {
		return nil, fmt.Errorf("ADVISOR_TOP_K must be at least 1, got %d", cfg.TopK)
	}
	if cfg.HistoryWindow < 0 {
		return nil, fmt.Errorf("ADVISOR_HISTORY_WINDOW must not be negative, got %d", cfg.HistoryWindow)
	}
	if cfg.PublishBuffer < 1 {
		return nil, fmt.Errorf("ADVISOR_PUBLISH_BUFFER must be at least 1, got %d", cfg.PublishBuffer)
	}
	if cfg.MonitorStaleness <= 0 {
		return nil, fmt.Errorf("MONITOR_STALENESS must be positive, got %s", cfg.MonitorStaleness)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("ADVISOR_DB_PATH must not be empty")
	}
	return cfg, nil
}

// PublishEnabled reports whether Kafka publishing is configured.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// IngestEnabled reports whether MQTT sensor ingest is configured.
func (c *Config) IngestEnabled() bool {
	return c.MQTTBroker != ""
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
