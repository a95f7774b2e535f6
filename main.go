package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/config"
	"storefront/handlers"
	"storefront/llm"
	"storefront/random"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var overrides config.Config

	flagSet := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&overrides.Addr, "addr", "", "listen address (default :8080)")
	flagSet.StringVar(&overrides.Database.Driver, "db-driver", "", "database driver: sqlite or mysql")
	flagSet.StringVar(&overrides.Database.DSN, "dsn", "", "database DSN")
	flagSet.StringVar(&overrides.LogLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&overrides.LogFormat, "log-format", "", "text or json")
	flagSet.Uint64Var(&overrides.Seed, "seed", 0, "random seed (0 uses the clock)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, flagSet, overrides)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx := context.Background()
	src := random.New(cfg.Seed)

	catalog := services.NewCatalogService(db, src, cfg.PageSize, log)
	coupons := services.NewCouponService(db, log)
	recharge := services.NewRechargeService(db, src)
	upcoming := services.NewUpcomingService(db)
	settings := services.NewSettingsService(db, log)
	if err := seed(ctx, catalog, coupons, recharge, upcoming, settings); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	agent, err := services.NewCatalogAgent(catalog, log)
	if err != nil {
		return err
	}
	client, err := llm.New(ctx, llm.Config{
		APIKey:     cfg.AI.APIKey,
		BaseURL:    cfg.AI.BaseURL,
		APIVersion: cfg.AI.APIVersion,
		HTTPClient: &http.Client{Timeout: cfg.AI.Timeout},
	})
	if err != nil {
		return fmt.Errorf("failed to create AI client: %w", err)
	}
	assistant, err := services.NewAssistant(client, agent, catalog, cfg.AI, src, log)
	if err != nil {
		return err
	}
	if cfg.AI.APIKey == "" {
		log.Warn("no AI API key configured; the assistant will answer with its fallback reply")
	}

	deps := services.NewSessionDeps(cfg, loc)
	deps.DB = db
	deps.Catalog = catalog
	deps.Coupons = coupons
	deps.Random = src
	deps.Logger = log
	sessions := services.NewSessions(deps)
	defer sessions.Close()
	if cfg.SessionIdle > 0 {
		stop := sweepIdle(cfg.SessionIdle, sessions, assistant)
		defer stop()
	}

	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Dependencies{
		Catalog:   catalog,
		Coupons:   coupons,
		Upcoming:  upcoming,
		Settings:  settings,
		Recharge:  recharge,
		Sessions:  sessions,
		Assistant: assistant,
		Delivery:  deps.Delivery,
		AdminPIN:  cfg.Admin.PIN,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("HTTP server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	log.Info("starting storefront", "addr", cfg.Addr, "db", cfg.Database.Driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	<-idleConnsClosed
	log.Info("server stopped")
	return nil
}

// sweepIdle periodically drops device sessions and chats nobody has
// touched for maxIdle.
func sweepIdle(maxIdle time.Duration, sessions *services.Sessions, assistant *services.Assistant) (stop func()) {
	ticker := time.NewTicker(max(maxIdle/2, time.Second))
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				for _, id := range sessions.EvictIdle(maxIdle) {
					assistant.Forget(id)
				}
				assistant.ForgetIdle(maxIdle)
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// applyFlags copies every flag the user actually set over cfg.
func applyFlags(cfg *config.Config, flagSet *pflag.FlagSet, overrides config.Config) {
	flagSet.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = overrides.Addr
		case "db-driver":
			cfg.Database.Driver = overrides.Database.Driver
		case "dsn":
			cfg.Database.DSN = overrides.Database.DSN
		case "log-level":
			cfg.LogLevel = overrides.LogLevel
		case "log-format":
			cfg.LogFormat = overrides.LogFormat
		case "seed":
			cfg.Seed = overrides.Seed
		}
	})
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openDB(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(cfg.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// one connection keeps an in-memory DSN a single database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func seed(ctx context.Context, catalog *services.CatalogService, coupons *services.CouponService, recharge *services.RechargeService, upcoming *services.UpcomingService, settings *services.SettingsService) error {
	if err := catalog.Seed(ctx, services.DefaultCatalog()); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := coupons.SeedCoupons(ctx, services.DefaultCoupons()); err != nil {
		return fmt.Errorf("coupons: %w", err)
	}
	if err := recharge.SeedRechargeCodes(ctx, services.DefaultRechargeCodes()); err != nil {
		return fmt.Errorf("recharge codes: %w", err)
	}
	if err := upcoming.Seed(ctx, services.DefaultUpcoming()); err != nil {
		return fmt.Errorf("upcoming: %w", err)
	}
	// loads the maintenance flag
	if _, err := settings.Get(ctx); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
