// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/logger"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/nacos"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/outbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/redis"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是所有服务共用的配置结构，各服务只读取自己关心的部分。
type Config struct {
	App       AppConfig          `yaml:"app"`
	Infra     InfraConfig        `yaml:"infra"`
	Consumer  ConsumerConfig     `yaml:"consumer"`
	Outbox    outbox.RelayConfig `yaml:"outbox"`
	Order     OrderConfig        `yaml:"order"`
	Inventory InventoryConfig    `yaml:"inventory"`
	Payment   PaymentConfig      `yaml:"payment"`
	Shipping  ShippingConfig     `yaml:"shipping"`
}

type AppConfig struct {
	Name            string        `yaml:"name"`
	Port            int           `yaml:"port"`
	LogLevel        string        `yaml:"logLevel"`
	LogFormat       string        `yaml:"logFormat"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type InfraConfig struct {
	Kafka     KafkaConfig     `yaml:"kafka"`
	MySQL     database.Config `yaml:"mysql"`
	Redis     redis.Config    `yaml:"redis"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Nacos     nacos.Config    `yaml:"nacos"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sampleRatio"`
}

// ZookeeperConfig 为空时 outbox relay 不做选主，依赖 SKIP LOCKED。
type ZookeeperConfig struct {
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"sessionTimeout"`
}

type ConsumerConfig struct {
	Prefetch       int           `yaml:"prefetch"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	InitialBackoff time.Duration `yaml:"initialBackoff"`
	MaxBackoff     time.Duration `yaml:"maxBackoff"`
	InboxTTL       time.Duration `yaml:"inboxTTL"`
}

// OrderConfig 金额使用字符串，避免浮点误差。
type OrderConfig struct {
	TaxRate               string            `yaml:"taxRate"`
	FlatShippingFee       string            `yaml:"flatShippingFee"`
	FreeShippingThreshold string            `yaml:"freeShippingThreshold"`
	DiscountExpression    string            `yaml:"discountExpression"`
	CheckTimeout          time.Duration     `yaml:"checkTimeout"`
	CatalogService        string            `yaml:"catalogService"`
	InventoryService      string            `yaml:"inventoryService"`
	Endpoints             map[string]string `yaml:"endpoints"`
}

type InventoryConfig struct {
	TombstoneTTL time.Duration `yaml:"tombstoneTTL"`
}

type PaymentConfig struct {
	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig type 为 fake 或 http。
type GatewayConfig struct {
	Type           string            `yaml:"type"`
	Service        string            `yaml:"service"`
	DeclineMethods []string          `yaml:"declineMethods"`
	MaxAmount      string            `yaml:"maxAmount"`
	Timeout        time.Duration     `yaml:"timeout"`
	Endpoints      map[string]string `yaml:"endpoints"`
}

type ShippingConfig struct {
	Carrier CarrierConfig `yaml:"carrier"`
}

// CarrierConfig type 为 fake 或 http。
type CarrierConfig struct {
	Type            string            `yaml:"type"`
	Name            string            `yaml:"name"`
	Service         string            `yaml:"service"`
	RejectCountries []string          `yaml:"rejectCountries"`
	Timeout         time.Duration     `yaml:"timeout"`
	Endpoints       map[string]string `yaml:"endpoints"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回 Init 加载的配置。
func GetCurrentConfig() *Config {
	return currentConfig.Load()
}

// Init 加载配置并初始化全局 logger。
// 配置文件路径取 CONFIG_FILE，默认 configs/<serviceName>.yaml。
func Init(serviceName string) (*Config, error) {
	path := getEnv("CONFIG_FILE", "configs/"+serviceName+".yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.App.Name == "" {
		cfg.App.Name = serviceName
	}
	currentConfig.Store(cfg)
	logger.Init(cfg.App.Name, cfg.App.LogLevel, cfg.App.LogFormat)
	return cfg, nil
}

// LoadConfig 读取 YAML 文件，再用环境变量覆盖基础设施地址。
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("APP_PORT", ""); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = port
		}
	}
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		cfg.Infra.Kafka.Brokers = splitList(v)
	}
	cfg.Infra.MySQL.DSN = getEnv("MYSQL_DSN", cfg.Infra.MySQL.DSN)
	if v := getEnv("REDIS_ADDRS", ""); v != "" {
		cfg.Infra.Redis.Addrs = splitList(v)
	}
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.NamespaceID = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.NamespaceID)
	if v := getEnv("NACOS_ENABLED", ""); v != "" {
		cfg.Infra.Nacos.Enabled = v == "true"
	}
	if v := getEnv("ZK_SERVERS", ""); v != "" {
		cfg.Infra.Zookeeper.Servers = splitList(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.ShutdownTimeout <= 0 {
		cfg.App.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Infra.Jaeger.SampleRatio <= 0 {
		cfg.Infra.Jaeger.SampleRatio = 1
	}
	if cfg.Infra.Zookeeper.SessionTimeout <= 0 {
		cfg.Infra.Zookeeper.SessionTimeout = 10 * time.Second
	}
	if cfg.Consumer.Prefetch <= 0 {
		cfg.Consumer.Prefetch = 1
	}
	if cfg.Consumer.MaxAttempts <= 0 {
		cfg.Consumer.MaxAttempts = 3
	}
	if cfg.Consumer.InitialBackoff <= 0 {
		cfg.Consumer.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.Consumer.MaxBackoff <= 0 {
		cfg.Consumer.MaxBackoff = 5 * time.Second
	}
	if cfg.Order.CheckTimeout <= 0 {
		cfg.Order.CheckTimeout = 5 * time.Second
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getEnv 从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
