package services

import (
	"context"
	"log/slog"
	"sync/atomic"

	"storefront/models"

	"gorm.io/gorm"
)

const settingsID = 1

// SettingsService owns the singleton store settings row. The maintenance
// flag is mirrored in memory so the request middleware does not query
// the database.
type SettingsService struct {
	db          *gorm.DB
	maintenance atomic.Bool
	logger      *slog.Logger
}

func NewSettingsService(db *gorm.DB, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{db: db, logger: logger}
}

func DefaultSettings() models.StoreSettings {
	return models.StoreSettings{
		ID:         settingsID,
		BannerText: "MEGA SALE IS LIVE! UP TO 80% OFF",
	}
}

func (s *SettingsService) Get(ctx context.Context) (*models.StoreSettings, error) {
	settings := DefaultSettings()
	if err := s.db.WithContext(ctx).Where("id = ?", settingsID).FirstOrCreate(&settings).Error; err != nil {
		return nil, err
	}
	s.maintenance.Store(settings.MaintenanceMode)
	return &settings, nil
}

// Update replaces every setting.
func (s *SettingsService) Update(ctx context.Context, settings *models.StoreSettings) error {
	settings.ID = settingsID
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return err
	}
	s.maintenance.Store(settings.MaintenanceMode)
	s.logger.Info("store settings updated", "maintenance", settings.MaintenanceMode, "flash_sale", settings.FlashSaleEnabled)
	return nil
}

// Maintenance reports the last loaded or saved maintenance flag.
func (s *SettingsService) Maintenance() bool {
	return s.maintenance.Load()
}
