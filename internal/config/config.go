package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DeviceID string

	// Local store
	DBPath string

	// Remote store
	RemoteURL     string
	RemoteToken   string
	RemoteTimeout time.Duration

	// Message bus
	NatsURL   string
	NatsToken string
	BusTopic  string

	// Display server
	HTTPAddr string

	// Pipeline
	DefaultSession string
	DepartureMode  bool
	DedupTTL       time.Duration

	// Background jobs
	SyncInterval      time.Duration
	ReconnectInterval time.Duration
	FullResync        bool

	// Reader driver selector ("sim" is the only in-tree driver)
	ReaderDriver string
}

// Load reads .env (if present) and the GATE_* environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		DeviceID: getenvDefault("GATE_DEVICE_ID", "checkpoint-001"),

		DBPath: getenvDefault("GATE_DB_PATH", "./data/checkpoint.db"),

		RemoteURL:     getenvDefault("GATE_REMOTE_URL", "http://localhost:9090"),
		RemoteToken:   os.Getenv("GATE_REMOTE_TOKEN"),
		RemoteTimeout: getenvSeconds("GATE_REMOTE_TIMEOUT_S", 10),

		NatsURL:   os.Getenv("GATE_NATS_URL"),
		NatsToken: os.Getenv("GATE_NATS_TOKEN"),
		BusTopic:  getenvDefault("GATE_BUS_TOPIC", "checkpoint.config"),

		HTTPAddr: getenvDefault("GATE_HTTP_ADDR", ":8080"),

		DefaultSession: getenvDefault("GATE_DEFAULT_SESSION", "1"),
		DepartureMode:  getenvBool("GATE_DEPARTURE_MODE"),
		DedupTTL:       getenvSeconds("GATE_DEDUP_TTL_S", 5),

		SyncInterval:      getenvMinutes("GATE_SYNC_INTERVAL_M", 15),
		ReconnectInterval: getenvSeconds("GATE_RECONNECT_INTERVAL_S", 2),
		FullResync:        getenvBool("GATE_FULL_RESYNC"),

		ReaderDriver: getenvDefault("GATE_READER_DRIVER", "sim"),
	}
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenvSeconds(key string, def int) time.Duration {
	return time.Duration(getenvInt(key, def)) * time.Second
}

func getenvMinutes(key string, def int) time.Duration {
	return time.Duration(getenvInt(key, def)) * time.Minute
}
