package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	FAQ       FAQConfig       `mapstructure:"faq"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

// FAQEntry pairs a keyword with its canned answer. Order matters: multi
// keyword queries concatenate answers in vocabulary order.
type FAQEntry struct {
	Keyword string `mapstructure:"keyword"`
	Answer  string `mapstructure:"answer"`
}

// FAQConfig is the responder vocabulary. It is loaded at startup and
// swapped in place when the config file changes on disk.
type FAQConfig struct {
	Greetings []string   `mapstructure:"greetings"`
	Fallback  string     `mapstructure:"fallback"`
	Entries   []FAQEntry `mapstructure:"entries"`
}

// DefaultFAQ is the built-in store vocabulary, used when the config file
// does not override it.
func DefaultFAQ() FAQConfig {
	return FAQConfig{
		Greetings: []string{"hi", "hello", "hey"},
		Fallback:  "I'm not sure how to help with that. Please ask something else or type 'logout' to end the session.",
		Entries: []FAQEntry{
			{Keyword: "store hours", Answer: "Our store hours are from 9 AM to 9 PM."},
			{Keyword: "home delivery", Answer: "Yes, we offer home delivery for all our products."},
			{Keyword: "return product", Answer: "You can return a product within 90 days with the receipt."},
			{Keyword: "refund policy", Answer: "Refunds are processed within 7-10 business days."},
			{Keyword: "store locations", Answer: "We have stores globally. Please visit our website for details."},
			{Keyword: "track order", Answer: "You can track your order using the tracking number provided in your email."},
			{Keyword: "loyalty program", Answer: "Yes, our IKEA Family program offers discounts and benefits."},
			{Keyword: "modify order", Answer: "Orders can be modified within 24 hours of placement."},
			{Keyword: "payment methods", Answer: "We accept all major credit cards, PayPal, and IKEA gift cards."},
			{Keyword: "warranty policy", Answer: "We offer a 10-year warranty on many of our products."},
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("FAQBOT")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if len(cfg.FAQ.Entries) == 0 {
		cfg.FAQ = DefaultFAQ()
	}

	return &cfg, nil
}
