package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Features FeatureFlags   `mapstructure:"features"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	OrdersTopic    string   `mapstructure:"orders_topic"`
	ShipmentsTopic string   `mapstructure:"shipments_topic"`
	ConsumerGroup  string   `mapstructure:"consumer_group"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// FeatureFlags switch the optional integrations. With everything off the
// service only needs Postgres.
type FeatureFlags struct {
	EnableCaching        bool `mapstructure:"enable_caching"`
	EnableOrderEvents    bool `mapstructure:"enable_order_events"`
	EnableShipmentEvents bool `mapstructure:"enable_shipment_events"`
	AutoMigrate          bool `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]interface{}{
	"server.port":             8082,
	"server.read_timeout":     30 * time.Second,
	"server.write_timeout":    30 * time.Second,
	"server.shutdown_timeout": 30 * time.Second,

	"db.host":           "localhost",
	"db.port":           5432,
	"db.user":           "acme",
	"db.password":       "acme",
	"db.name":           "acme_warehouse",
	"db.sslmode":        "disable",
	"db.max_open_conns": 25,
	"db.max_idle_conns": 5,
	"db.max_lifetime":   5 * time.Minute,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,
	"redis.ttl":      5 * time.Minute,

	"kafka.brokers":         []string{"localhost:9092"},
	"kafka.orders_topic":    "warehouse.orders",
	"kafka.shipments_topic": "warehouse.shipments",
	"kafka.consumer_group":  "warehouse-service",

	"auth.api_key": "",

	"features.enable_caching":         false,
	"features.enable_order_events":    false,
	"features.enable_shipment_events": false,
	"features.auto_migrate":           false,

	"log.level": "info",
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing priority. Environment names are the keys with
// dots replaced by underscores: DB_HOST, SERVER_PORT, FEATURES_ENABLE_CACHING.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("auth.api_key", "AUTH_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Kafka.Brokers = splitCSV(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key (API_KEY) must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if (c.Features.EnableOrderEvents || c.Features.EnableShipmentEvents) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must be set when events are enabled")
	}
	return nil
}

// splitCSV flattens "a:9092,b:9092" style entries, which is how a list
// arrives from the environment.
func splitCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
