package services

import (
	"context"
	"strings"
	"time"

	"storefront/models"
	"storefront/random"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RechargeService is the admin side of recharge codes. Redemption lives
// on the device Ledger.
type RechargeService struct {
	db  *gorm.DB
	src random.Source
}

func NewRechargeService(db *gorm.DB, src random.Source) *RechargeService {
	return &RechargeService{db: db, src: src}
}

// CreateRechargeCode stores a new unused code. An empty code is
// generated as RC- followed by eight alphanumerics.
func (s *RechargeService) CreateRechargeCode(ctx context.Context, code string, value decimal.Decimal) (*models.RechargeCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = "RC-" + random.Code(s.src, 8)
	}
	if !value.IsPositive() {
		return nil, FieldErrors{"value": "must be positive"}
	}

	rc := &models.RechargeCode{
		Code:      code,
		Value:     value,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(rc).Error; err != nil {
		return nil, err
	}
	return rc, nil
}

func (s *RechargeService) ListRechargeCodes(ctx context.Context) ([]models.RechargeCode, error) {
	var codes []models.RechargeCode
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *RechargeService) SeedRechargeCodes(ctx context.Context, codes []models.RechargeCode) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rc := range codes {
			if err := tx.Where("code = ?", rc.Code).FirstOrCreate(&rc).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func DefaultRechargeCodes() []models.RechargeCode {
	return []models.RechargeCode{
		{Code: "WELCOME100", Value: decimal.NewFromInt(100)},
		{Code: "NAMAN500", Value: decimal.NewFromInt(500)},
	}
}
