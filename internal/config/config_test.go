package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.MaxEventsBytes != 1<<20 || cfg.ReportCacheTTL != time.Hour {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.KafkaInputTopic != "ride-sim-events" || cfg.AMQPExchange != "ride-sim.trace" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("REPORT_CACHE_TTL", "5m")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MIGRATE", "TRUE")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.ReportCacheTTL != 5*time.Minute || cfg.LogLevel != "debug" || !cfg.RunMigrations {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "a:9092" || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestInvalidValuesAreJoined(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "soon")
	t.Setenv("MAX_EVENTS_BYTES", "0")
	t.Setenv("REPORT_CACHE_TTL", "-1s")

	_, err := LoadServerConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"HTTP_READ_TIMEOUT", "MAX_EVENTS_BYTES", "REPORT_CACHE_TTL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err)
		}
	}
}
