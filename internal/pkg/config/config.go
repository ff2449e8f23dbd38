// internal/pkg/config/config.go
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构。
// 默认从 yaml 文件加载，个别字段允许环境变量覆盖，方便容器化部署。
type Config struct {
	MySQL struct {
		Addr     string `yaml:"addr"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"mysql"`

	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		OrderStatusTopic string   `yaml:"order_status_topic"`
	} `yaml:"kafka"`

	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`
}

// Load 从指定路径加载配置文件，再应用环境变量覆盖。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Default 返回本地开发环境的默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.MySQL.Addr = "localhost:3306"
	cfg.MySQL.User = "root"
	cfg.MySQL.Password = "root"
	cfg.MySQL.Database = "primeshop"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.OrderStatusTopic = "order-status-events"
	cfg.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	return cfg
}

func (c *Config) applyEnv() {
	c.MySQL.Addr = getEnv("MYSQL_ADDR", c.MySQL.Addr)
	c.MySQL.User = getEnv("MYSQL_USER", c.MySQL.User)
	c.MySQL.Password = getEnv("MYSQL_PASSWORD", c.MySQL.Password)
	c.MySQL.Database = getEnv("MYSQL_DATABASE", c.MySQL.Database)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Jaeger.Endpoint)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
