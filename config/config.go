package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Seed      uint64 `yaml:"seed"`
	PageSize  int    `yaml:"page_size"`
	// SessionIdle is how long an untouched device session and its chat
	// stay in memory. Zero keeps them until shutdown.
	SessionIdle time.Duration `yaml:"session_idle"`
	Database    Database      `yaml:"database"`
	Pricing     Pricing       `yaml:"pricing"`
	Checkout    Checkout      `yaml:"checkout"`
	Rewards     Rewards       `yaml:"rewards"`
	Admin       Admin         `yaml:"admin"`
	AI          AI            `yaml:"ai"`
}

type Database struct {
	Driver string `yaml:"driver"` // sqlite or mysql
	DSN    string `yaml:"dsn"`
}

type Pricing struct {
	PlatformFee      decimal.Decimal `yaml:"platform_fee"`
	WalletCapPercent decimal.Decimal `yaml:"wallet_cap_percent"`
	ProThreshold     decimal.Decimal `yaml:"pro_threshold"`
	GodTierThreshold decimal.Decimal `yaml:"god_tier_threshold"`
	ProRate          decimal.Decimal `yaml:"pro_rate"`
	GodTierRate      decimal.Decimal `yaml:"god_tier_rate"`
}

type Checkout struct {
	ProcessingDelay time.Duration `yaml:"processing_delay"`
	MessagingNumber string        `yaml:"messaging_number"`
	PayeeID         string        `yaml:"payee_id"`
	PayeeName       string        `yaml:"payee_name"`
	Currency        string        `yaml:"currency"`
	QRServiceURL    string        `yaml:"qr_service_url"`
}

type Rewards struct {
	SpinDuration time.Duration `yaml:"spin_duration"`
	FullTurns    int           `yaml:"full_turns"`
	Timezone     string        `yaml:"timezone"`
}

type Admin struct {
	PIN string `yaml:"pin"`
}

type AI struct {
	BaseURL    string        `yaml:"base_url"`
	APIVersion string        `yaml:"api_version"`
	APIKey     string        `yaml:"api_key"`
	ChatModel  string        `yaml:"chat_model"`
	FastModel  string        `yaml:"fast_model"`
	RatePerSec float64       `yaml:"rate_per_sec"`
	Burst      int           `yaml:"burst"`
	Timeout    time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "text",
		PageSize:    12,
		SessionIdle: 30 * time.Minute,
		Database: Database{
			Driver: "sqlite",
			DSN:    "file:storefront.db?cache=shared",
		},
		Pricing: Pricing{
			PlatformFee:      decimal.NewFromInt(99),
			WalletCapPercent: decimal.NewFromInt(10),
			ProThreshold:     decimal.NewFromInt(2000),
			GodTierThreshold: decimal.NewFromInt(10000),
			ProRate:          decimal.NewFromInt(5),
			GodTierRate:      decimal.NewFromInt(10),
		},
		Checkout: Checkout{
			ProcessingDelay: 20 * time.Second,
			MessagingNumber: "919313339081",
			PayeeID:         "namansejpal9999@okicici",
			PayeeName:       "BrahmastraGameStore",
			Currency:        "INR",
			QRServiceURL:    "https://api.qrserver.com/v1/create-qr-code/",
		},
		Rewards: Rewards{
			SpinDuration: 4 * time.Second,
			FullTurns:    5,
			Timezone:     "Local",
		},
		Admin: Admin{PIN: "9999"},
		AI: AI{
			BaseURL:    "https://generativelanguage.googleapis.com/",
			APIVersion: "v1beta",
			ChatModel:  "gemini-3-pro-preview",
			FastModel:  "gemini-3-flash-preview",
			RatePerSec: 1,
			Burst:      3,
			Timeout:    60 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults (an empty path skips
// the file) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("STOREFRONT_ADDR", &c.Addr)
	setString("STOREFRONT_LOG_LEVEL", &c.LogLevel)
	setString("STOREFRONT_DB_DRIVER", &c.Database.Driver)
	setString("STOREFRONT_DB_DSN", &c.Database.DSN)
	setString("STOREFRONT_ADMIN_PIN", &c.Admin.PIN)
	setString("STOREFRONT_TIMEZONE", &c.Rewards.Timezone)
	setString("GEMINI_API_KEY", &c.AI.APIKey)
	setString("API_KEY", &c.AI.APIKey)

	if v := os.Getenv("STOREFRONT_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("STOREFRONT_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("STOREFRONT_PROCESSING_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STOREFRONT_PROCESSING_DELAY: %w", err)
		}
		c.Checkout.ProcessingDelay = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Database.Driver != "sqlite" && c.Database.Driver != "mysql" {
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Pricing.PlatformFee.IsNegative() {
		errs = append(errs, errors.New("platform_fee must not be negative"))
	}
	hundred := decimal.NewFromInt(100)
	if c.Pricing.WalletCapPercent.IsNegative() || c.Pricing.WalletCapPercent.GreaterThan(hundred) {
		errs = append(errs, errors.New("wallet_cap_percent must be within [0, 100]"))
	}
	if c.Pricing.ProRate.IsNegative() || c.Pricing.ProRate.GreaterThan(hundred) {
		errs = append(errs, errors.New("pro_rate must be within [0, 100]"))
	}
	if c.Pricing.GodTierRate.IsNegative() || c.Pricing.GodTierRate.GreaterThan(hundred) {
		errs = append(errs, errors.New("god_tier_rate must be within [0, 100]"))
	}
	if !c.Pricing.GodTierThreshold.GreaterThan(c.Pricing.ProThreshold) {
		errs = append(errs, errors.New("god_tier_threshold must exceed pro_threshold"))
	}
	if c.Checkout.ProcessingDelay < 0 || c.Rewards.SpinDuration < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.SessionIdle < 0 {
		errs = append(errs, errors.New("session_idle must not be negative"))
	}
	if c.Rewards.FullTurns < 0 {
		errs = append(errs, errors.New("full_turns must not be negative"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("page_size must be positive"))
	}
	if c.Admin.PIN == "" {
		errs = append(errs, errors.New("admin pin must be set"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location is the device timezone used to key daily rewards.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Rewards.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Rewards.Timezone, err)
	}
	return loc, nil
}
