package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/referrals")
	t.Setenv("GATEWAY_TOKEN", "secret")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	require.Equal(t, 5200, cfg.Port)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	require.Equal(t, 10*time.Second, cfg.OrderPollInterval)
	require.Equal(t, 10*time.Minute, cfg.AuditInterval)
	require.Equal(t, "purchases", cfg.KafkaPurchasesTopic)
	require.False(t, cfg.RedisEnabled())
	require.False(t, cfg.KafkaEnabled())
	require.False(t, cfg.OrderSyncEnabled())
	require.False(t, cfg.R2Enabled())
	require.False(t, cfg.IsProduction())
}

func TestOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/referrals")
	t.Setenv("GATEWAY_TOKEN", "secret")
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ORDER_SERVICE_URL", "http://orders.internal/")
	t.Setenv("SERVICE_TOKEN", "svc")
	t.Setenv("AUDIT_INTERVAL", "1h")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.True(t, cfg.IsProduction())
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "http://orders.internal", cfg.OrderServiceURL)
	require.Equal(t, time.Hour, cfg.AuditInterval)
}

func TestRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GATEWAY_TOKEN", "secret")
	_, err := fromViper(viper.New())
	require.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/referrals")
	t.Setenv("GATEWAY_TOKEN", "")
	_, err = fromViper(viper.New())
	require.ErrorContains(t, err, "GATEWAY_TOKEN")

	t.Setenv("GATEWAY_TOKEN", "secret")
	t.Setenv("ORDER_SERVICE_URL", "http://orders.internal")
	t.Setenv("SERVICE_TOKEN", "")
	_, err = fromViper(viper.New())
	require.ErrorContains(t, err, "SERVICE_TOKEN")
}
