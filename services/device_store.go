package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Device-scoped state keys.
const (
	KeyCart          = "cart"
	KeyWishlist      = "wishlist"
	KeyWalletBalance = "wallet_balance"
	KeyLootDate      = "loot_date"
	KeyLifetimeSpend = "lifetime_spend"
)

// DeviceStore is the per-device key/value store. Values are JSON.
type DeviceStore struct {
	db *gorm.DB
}

func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

// WithTx returns a store that reads and writes through tx.
func (s *DeviceStore) WithTx(tx *gorm.DB) *DeviceStore {
	return &DeviceStore{db: tx}
}

// Load decodes the value stored under (deviceID, key) into dst. It
// reports false, leaving dst untouched, when nothing is stored.
func (s *DeviceStore) Load(ctx context.Context, deviceID, key string, dst any) (bool, error) {
	var state models.DeviceState
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND state_key = ?", deviceID, key).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(state.Value), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *DeviceStore) Save(ctx context.Context, deviceID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	state := models.DeviceState{
		DeviceID:  deviceID,
		Key:       key,
		Value:     string(data),
		UpdatedAt: time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
