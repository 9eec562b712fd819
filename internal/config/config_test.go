package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorageRedis, cfg.CartStorage)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.TaxPercent.Equal(decimal.NewFromInt(8)))
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CART_STORAGE", "mongo")
	t.Setenv("BACKEND_URL", "http://backend:8000/api/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("TAX_PERCENT", "7.5")
	t.Setenv("SERVICE_FEE", "1.00")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, StorageMongo, cfg.CartStorage)
	assert.Equal(t, "http://backend:8000/api", cfg.BackendURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)

	opts := cfg.BillOptions()
	assert.True(t, opts.TaxPercent.Equal(decimal.RequireFromString("7.5")))
	require.Len(t, opts.Fees, 1)
	assert.Equal(t, "1", opts.Fees[0].Amount.String())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"REQUEST_TIMEOUT", "soon"},
		{"BREAKER_THRESHOLD", "-1"},
		{"TAX_PERCENT", "eight"},
		{"CART_STORAGE", "floppy"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
