package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"storefront/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedTestCatalog(t *testing.T, catalog *CatalogService) {
	t.Helper()
	if err := catalog.Seed(context.Background(), DefaultCatalog()); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}
}

func mustItem(t *testing.T, catalog *CatalogService, id string) *models.CatalogItem {
	t.Helper()
	item, err := catalog.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load %s: %v", id, err)
	}
	return item
}
