package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"storefront/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CouponService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewCouponService(db *gorm.DB, logger *slog.Logger) *CouponService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CouponService{db: db, logger: logger}
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCoupon(coupon *models.Coupon) error {
	fields := FieldErrors{}
	if coupon.Code == "" {
		fields["code"] = "code is required"
	}
	if !coupon.Type.Valid() {
		fields["discount_type"] = "must be percent or flat"
	}
	if !coupon.Value.IsPositive() {
		fields["value"] = "must be positive"
	} else if coupon.Type == models.Percent && coupon.Value.GreaterThan(hundred) {
		fields["value"] = "percent cannot exceed 100"
	}
	if coupon.MinOrder.IsNegative() {
		fields["min_order"] = "must not be negative"
	}
	return fields.orNil()
}

func (s *CouponService) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = NormalizeCode(coupon.Code)
	if err := validateCoupon(coupon); err != nil {
		return err
	}

	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return err
	}
	s.logger.Info("coupon created", "code", coupon.Code, "type", coupon.Type, "value", coupon.Value)
	return nil
}

func (s *CouponService) UpdateCoupon(ctx context.Context, id int64, coupon *models.Coupon) error {
	existing := &models.Coupon{}
	if err := s.db.WithContext(ctx).First(existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}

	coupon.Code = NormalizeCode(coupon.Code)
	if err := validateCoupon(coupon); err != nil {
		return err
	}

	existing.Code = coupon.Code
	existing.Type = coupon.Type
	existing.Value = coupon.Value
	existing.MinOrder = coupon.MinOrder
	existing.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return err
	}
	*coupon = *existing
	return nil
}

func (s *CouponService) DeleteCoupon(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&models.Coupon{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (s *CouponService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := s.db.WithContext(ctx).Order("code").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// FindByCode looks a coupon up case-insensitively.
func (s *CouponService) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Validate resolves code and checks its minimum order against subtotal.
func (s *CouponService) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.Coupon, error) {
	coupon, err := s.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if subtotal.LessThan(coupon.MinOrder) {
		return nil, &MinOrderError{Code: coupon.Code, Required: coupon.MinOrder}
	}
	return coupon, nil
}

// GetAvailableCoupons returns the coupons whose minimum order subtotal
// meets, best value first.
func (s *CouponService) GetAvailableCoupons(ctx context.Context, subtotal decimal.Decimal) ([]models.Coupon, error) {
	coupons, err := s.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}

	available := make([]models.Coupon, 0, len(coupons))
	for _, coupon := range coupons {
		if subtotal.GreaterThanOrEqual(coupon.MinOrder) {
			available = append(available, coupon)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Amount(subtotal).GreaterThan(available[j].Amount(subtotal))
	})
	return available, nil
}

// SeedCoupons inserts any of coupons whose code is not present yet.
func (s *CouponService) SeedCoupons(ctx context.Context, coupons []models.Coupon) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, coupon := range coupons {
			coupon.Code = NormalizeCode(coupon.Code)
			if err := tx.Where("code = ?", coupon.Code).FirstOrCreate(&coupon).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func DefaultCoupons() []models.Coupon {
	return []models.Coupon{
		{Code: "BRAHMA20", Type: models.Percent, Value: decimal.NewFromInt(20), MinOrder: decimal.NewFromInt(2000)},
		{Code: "PSPRIME199", Type: models.Flat, Value: decimal.NewFromInt(200)},
		{Code: "GAMER10", Type: models.Percent, Value: decimal.NewFromInt(10), MinOrder: decimal.NewFromInt(1000)},
		{Code: "SPIN10", Type: models.Percent, Value: decimal.NewFromInt(10), MinOrder: decimal.NewFromInt(1000)},
		{Code: "WIN100", Type: models.Flat, Value: decimal.NewFromInt(100)},
		{Code: "WIN50", Type: models.Flat, Value: decimal.NewFromInt(50)},
		{Code: "SPIN5", Type: models.Percent, Value: decimal.NewFromInt(5)},
		{Code: "JACKPOT", Type: models.Flat, Value: decimal.NewFromInt(200)},
		{Code: "LOOT50", Type: models.Flat, Value: decimal.NewFromInt(50)},
		{Code: "LOOT5", Type: models.Percent, Value: decimal.NewFromInt(5)},
		{Code: "LUCKY10", Type: models.Flat, Value: decimal.NewFromInt(10)},
	}
}
