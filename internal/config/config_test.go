package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE_BACKEND", "EVENTS_BROKER", "TAX_RATE", "CHECKOUT_MAX_ATTEMPTS", "CORS_ALLOW_ORIGINS", "ORDER_ID_PREFIX"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPebble, cfg.StorageBackend)
	assert.Equal(t, BrokerNone, cfg.EventsBroker)
	assert.Equal(t, "0.18", cfg.TaxRate.String())
	assert.Equal(t, "COLA", cfg.OrderIDPrefix)
	assert.Equal(t, "2-3 business days", cfg.EstimatedDelivery)
	assert.Equal(t, 2*time.Second, cfg.CheckoutDelay)
	assert.Equal(t, uint(3), cfg.CheckoutMaxAttempts)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("EVENTS_BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TAX_RATE", "0.05")
	t.Setenv("CHECKOUT_DELAY", "250ms")
	t.Setenv("RUN_MIGRATIONS", "no")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "0.05", cfg.TaxRate.String())
	assert.Equal(t, 250*time.Millisecond, cfg.CheckoutDelay)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"negative tax":         {"TAX_RATE": "-1"},
		"zero attempts":        {"CHECKOUT_MAX_ATTEMPTS": "0"},
		"unknown backend":      {"STORAGE_BACKEND": "sqlite"},
		"postgres without dsn": {"STORAGE_BACKEND": "postgres", "STOREFRONT_DB_DSN": ""},
		"unknown broker":       {"EVENTS_BROKER": "nats"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", "prod")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("loud", "dev")
	assert.Error(t, err)
}
