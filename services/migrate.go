package services

import (
	"storefront/models"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the storefront uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CatalogItem{},
		&models.Coupon{},
		&models.RechargeCode{},
		&models.UpcomingRelease{},
		&models.StoreSettings{},
		&models.DeviceState{},
	)
}
