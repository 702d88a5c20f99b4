// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	SinkBus   = "bus"
	SinkKafka = "kafka"
)

// Config holds configuration knobs for the HTTP shell, storage, settlement and telemetry.
type Config struct {
	ServiceName     string
	ServiceVersion  string
	Env             string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogFile         string

	Store     string
	SQLiteDSN string

	SettlementSink       string
	KafkaBrokers         []string
	KafkaSettlementTopic string

	OTelEndpoint     string
	OTelInsecure     bool
	MetricsNamespace string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func listenv(key string) []string {
	var out []string
	for _, part := range strings.Split(getenv(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load collects configuration from environment with defaults and rejects
// combinations the service cannot start with.
func Load() (Config, error) {
	c := Config{
		ServiceName:          getenv("SERVICE_NAME", "minishop-ledger"),
		ServiceVersion:       getenv("SERVICE_VERSION", "dev"),
		Env:                  getenv("ENV", "dev"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:      durenvs("SHUTDOWN_TIMEOUT", 10),
		LogFile:              getenv("LOG_FILE", ""),
		Store:                strings.ToLower(getenv("STORE", StoreMemory)),
		SQLiteDSN:            getenv("SQLITE_DSN", "file:ledger.db?_pragma=busy_timeout(5000)"),
		SettlementSink:       strings.ToLower(getenv("SETTLEMENT_SINK", SinkBus)),
		KafkaBrokers:         listenv("KAFKA_BROKERS"),
		KafkaSettlementTopic: getenv("KAFKA_SETTLEMENT_TOPIC", "settlement.requested"),
		OTelEndpoint:         getenv("OTEL_ENDPOINT", ""),
		OTelInsecure:         boolenv("OTEL_INSECURE", true),
		MetricsNamespace:     getenv("METRICS_NAMESPACE", ""),
	}

	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return Config{}, fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	switch c.SettlementSink {
	case SinkBus:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return Config{}, fmt.Errorf("config: SETTLEMENT_SINK=kafka requires KAFKA_BROKERS")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown SETTLEMENT_SINK %q", c.SettlementSink)
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c, nil
}
