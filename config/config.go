package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            int
	AppEnv          string
	DatabaseURL     string
	GatewayToken    string
	AllowedOrigins  []string
	ReferralBaseURL string

	RedisAddr     string
	RedisUsername string
	RedisPassword string

	OrderServiceURL   string
	ServiceToken      string
	OrderPollInterval time.Duration

	KafkaBrokers        []string
	KafkaPurchasesTopic string
	KafkaGroupID        string

	AuditInterval time.Duration

	CloudflareAccountID string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2BucketName        string
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c *Config) OrderSyncEnabled() bool { return c.OrderServiceURL != "" }

func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c *Config) R2Enabled() bool {
	return c.CloudflareAccountID != "" && c.R2AccessKeyID != "" &&
		c.R2AccessKeySecret != "" && c.R2BucketName != ""
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromViper(viper.New())
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetDefault("PORT", 5200)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("ORDER_POLL_INTERVAL", "10s")
	v.SetDefault("KAFKA_PURCHASES_TOPIC", "purchases")
	v.SetDefault("KAFKA_GROUP_ID", "referral-credit-system")
	v.SetDefault("AUDIT_INTERVAL", "10m")

	cfg := &Config{
		Port:                v.GetInt("PORT"),
		AppEnv:              v.GetString("APP_ENV"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		GatewayToken:        v.GetString("GATEWAY_TOKEN"),
		AllowedOrigins:      splitList(v.GetString("ALLOWED_ORIGINS")),
		ReferralBaseURL:     v.GetString("REFERRAL_BASE_URL"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisUsername:       v.GetString("REDIS_USERNAME"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		OrderServiceURL:     strings.TrimRight(v.GetString("ORDER_SERVICE_URL"), "/"),
		ServiceToken:        v.GetString("SERVICE_TOKEN"),
		OrderPollInterval:   v.GetDuration("ORDER_POLL_INTERVAL"),
		KafkaBrokers:        splitList(v.GetString("KAFKA_BROKERS")),
		KafkaPurchasesTopic: v.GetString("KAFKA_PURCHASES_TOPIC"),
		KafkaGroupID:        v.GetString("KAFKA_GROUP_ID"),
		AuditInterval:       v.GetDuration("AUDIT_INTERVAL"),
		CloudflareAccountID: v.GetString("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:       v.GetString("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret:   v.GetString("R2_ACCESS_KEY_SECRET"),
		R2BucketName:        v.GetString("R2_BUCKET_NAME"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.GatewayToken == "" {
		return nil, fmt.Errorf("GATEWAY_TOKEN environment variable not set")
	}
	if cfg.OrderSyncEnabled() && cfg.ServiceToken == "" {
		return nil, fmt.Errorf("SERVICE_TOKEN is required when ORDER_SERVICE_URL is set")
	}
	if cfg.OrderPollInterval <= 0 {
		return nil, fmt.Errorf("ORDER_POLL_INTERVAL must be positive, got %s", cfg.OrderPollInterval)
	}
	if cfg.AuditInterval <= 0 {
		return nil, fmt.Errorf("AUDIT_INTERVAL must be positive, got %s", cfg.AuditInterval)
	}
	return cfg, nil
}

// splitList turns a comma separated value into trimmed, non-empty items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
