package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
app:
  name: order-service
  port: 8081
infra:
  kafka:
    brokers: ["localhost:9092"]
  mysql:
    dsn: "root:root@tcp(localhost:3306)/orders"
consumer:
  maxAttempts: 5
  initialBackoff: 100ms
outbox:
  interval: 2s
  batchSize: 50
order:
  taxRate: "0.18"
  checkTimeout: 3s
  endpoints:
    product-service: http://localhost:8084
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "order-service.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Port != 8081 || cfg.Consumer.MaxAttempts != 5 {
		t.Errorf("unexpected app/consumer config: %+v %+v", cfg.App, cfg.Consumer)
	}
	if cfg.Consumer.InitialBackoff != 100*time.Millisecond || cfg.Outbox.Interval != 2*time.Second {
		t.Errorf("durations not parsed: %v %v", cfg.Consumer.InitialBackoff, cfg.Outbox.Interval)
	}
	if cfg.Order.Endpoints["product-service"] != "http://localhost:8084" {
		t.Errorf("endpoints = %v", cfg.Order.Endpoints)
	}
	// 默认值
	if cfg.Consumer.Prefetch != 1 || cfg.App.ShutdownTimeout != 10*time.Second {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("MYSQL_DSN", "u:p@tcp(db:3306)/orders")
	t.Setenv("APP_PORT", "9000")

	cfg, err := LoadConfig(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Infra.Kafka.Brokers) != 2 || cfg.Infra.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Infra.Kafka.Brokers)
	}
	if cfg.Infra.MySQL.DSN != "u:p@tcp(db:3306)/orders" {
		t.Errorf("dsn = %s", cfg.Infra.MySQL.DSN)
	}
	if cfg.App.Port != 9000 {
		t.Errorf("port = %d", cfg.App.Port)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
