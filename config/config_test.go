package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Pricing.PlatformFee.Equal(decimal.NewFromInt(99)))
	assert.Equal(t, 20*time.Second, cfg.Checkout.ProcessingDelay)
	assert.Equal(t, 4*time.Second, cfg.Rewards.SpinDuration)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.yaml")
	content := `
addr: ":9090"
pricing:
  platform_fee: 49
  wallet_cap_percent: "15"
checkout:
  processing_delay: 5s
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/store"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("STOREFRONT_ADMIN_PIN", "1234")
	t.Setenv("STOREFRONT_SEED", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.Pricing.PlatformFee.Equal(decimal.NewFromInt(49)))
	assert.True(t, cfg.Pricing.WalletCapPercent.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 5*time.Second, cfg.Checkout.ProcessingDelay)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "1234", cfg.Admin.PIN)
	assert.Equal(t, uint64(7), cfg.Seed)
	// untouched values keep their defaults
	assert.Equal(t, 12, cfg.PageSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"fee", func(c *Config) { c.Pricing.PlatformFee = decimal.NewFromInt(-1) }},
		{"cap", func(c *Config) { c.Pricing.WalletCapPercent = decimal.NewFromInt(101) }},
		{"thresholds", func(c *Config) { c.Pricing.GodTierThreshold = c.Pricing.ProThreshold }},
		{"timezone", func(c *Config) { c.Rewards.Timezone = "Mars/Olympus" }},
		{"pin", func(c *Config) { c.Admin.PIN = "" }},
		{"negative pro rate", func(c *Config) { c.Pricing.ProRate = decimal.NewFromInt(-1) }},
		{"pro rate over 100", func(c *Config) { c.Pricing.ProRate = decimal.NewFromFloat(100.5) }},
		{"negative god tier rate", func(c *Config) { c.Pricing.GodTierRate = decimal.NewFromInt(-5) }},
		{"god tier rate over 100", func(c *Config) { c.Pricing.GodTierRate = decimal.NewFromInt(150) }},
		{"negative full turns", func(c *Config) { c.Rewards.FullTurns = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsRateBounds(t *testing.T) {
	cfg := Default()
	cfg.Pricing.ProRate = decimal.Zero
	cfg.Pricing.GodTierRate = decimal.NewFromInt(100)
	cfg.Rewards.FullTurns = 0
	assert.NoError(t, cfg.Validate())
}
