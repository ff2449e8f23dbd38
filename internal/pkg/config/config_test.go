// internal/pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MySQL.Addr != "localhost:3306" {
		t.Errorf("mysql addr = %q", cfg.MySQL.Addr)
	}
	if cfg.Kafka.OrderStatusTopic != "order-status-events" {
		t.Errorf("topic = %q", cfg.Kafka.OrderStatusTopic)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
mysql:
  addr: db:3306
  database: shop
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MySQL.Addr != "db:3306" || cfg.MySQL.Database != "shop" {
		t.Errorf("mysql = %+v", cfg.MySQL)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	// 文件未覆盖的字段保留默认值
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MYSQL_ADDR", "prod-db:3306")
	t.Setenv("REDIS_ADDR", "prod-redis:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MySQL.Addr != "prod-db:3306" {
		t.Errorf("mysql addr = %q, want env override", cfg.MySQL.Addr)
	}
	if cfg.Redis.Addr != "prod-redis:6379" {
		t.Errorf("redis addr = %q, want env override", cfg.Redis.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
