package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPServer.Port != 5000 {
		t.Errorf("Expected port 5000, got %d", cfg.HTTPServer.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Metrics.FPSWindowSize != 60 {
		t.Errorf("Expected fps window 60, got %d", cfg.Metrics.FPSWindowSize)
	}
	if !cfg.Broadcast.Enabled {
		t.Error("Expected broadcast enabled by default")
	}
	if !cfg.Alerts.Enabled {
		t.Error("Expected alerts enabled by default")
	}
	if cfg.Redis.Enabled || cfg.Kafka.Enabled {
		t.Error("Expected Redis and Kafka export disabled by default")
	}
	if cfg.Broadcast.PublishTimeout != 5*time.Second {
		t.Errorf("Expected publish timeout 5s, got %v", cfg.Broadcast.PublishTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("BROADCAST_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Driver != "memory" {
		t.Errorf("Expected memory driver, got %s", cfg.Database.Driver)
	}
	if cfg.HTTPServer.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.HTTPServer.Port)
	}
	if cfg.Broadcast.Enabled {
		t.Error("Expected broadcast disabled")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("Expected 2 brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unsupported driver")
	}
}

func TestConnectionString(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "fleet",
		Password: "secret",
		DBName:   "fleetzone",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5433 user=fleet password=secret dbname=fleetzone sslmode=require"
	if got := d.ConnectionString(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
