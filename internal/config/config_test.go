package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 2*time.Second, cfg.Sync.Debounce)
	assert.Equal(t, 15*time.Second, cfg.Sync.RequestTimeout)
	assert.Equal(t, 20, cfg.Sync.Batch.Transactions)
	assert.Equal(t, 10, cfg.Sync.Batch.Reports)
	assert.Equal(t, 100, cfg.Server.ReportsPullLimit)
	assert.EqualValues(t, 32<<20, cfg.Sync.MaxResponse)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("SYNC_BATCH_PRODUCTS", "0")
	t.Setenv("CORS_ORIGINS", "http://till.local,http://admin.local")
	t.Setenv("DEVICE_ID", "till-7")
	t.Setenv("DB_HOST", "db")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Zero(t, cfg.Sync.Batch.Products)
	assert.Equal(t, []string{"http://till.local", "http://admin.local"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "till-7", cfg.Device.ID)
	assert.Equal(t, "postgres://postgres:@db:5432/tillsync?sslmode=disable", cfg.ConnectionString())
}
