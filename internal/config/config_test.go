package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVICE_NAME", "SERVICE_VERSION", "ENV", "HTTP_ADDR", "SHUTDOWN_TIMEOUT", "LOG_FILE",
		"STORE", "SQLITE_DSN", "SETTLEMENT_SINK", "KAFKA_BROKERS", "KAFKA_SETTLEMENT_TOPIC",
		"OTEL_ENDPOINT", "OTEL_INSECURE", "METRICS_NAMESPACE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr default")
	}
	if c.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout default")
	}
	if c.Store != StoreMemory || c.SettlementSink != SinkBus {
		t.Fatalf("store/sink default: %q %q", c.Store, c.SettlementSink)
	}
	if c.OTelEndpoint != "" || !c.OTelInsecure {
		t.Fatalf("otel default")
	}
	if c.KafkaBrokers != nil {
		t.Fatalf("brokers default: %v", c.KafkaBrokers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")
	t.Setenv("STORE", "SQLite")
	t.Setenv("SETTLEMENT_SINK", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("OTEL_INSECURE", "false")

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTPAddr != ":9090" || c.ShutdownTimeout != 3*time.Second {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.Store != StoreSQLite {
		t.Fatalf("store: %q", c.Store)
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers: %v", c.KafkaBrokers)
	}
	if c.OTelInsecure {
		t.Fatalf("OTEL_INSECURE override")
	}
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":         {"STORE": "postgres"},
		"unknown sink":          {"SETTLEMENT_SINK": "carrier-pigeon"},
		"kafka without brokers": {"SETTLEMENT_SINK": "kafka"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("want error")
			}
		})
	}
}
