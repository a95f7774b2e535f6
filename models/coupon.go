package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon discount kind.
type DiscountType string

const (
	Percent DiscountType = "percent" // share of the cart subtotal
	Flat    DiscountType = "flat"    // fixed amount off the order
)

func (t DiscountType) Valid() bool {
	return t == Percent || t == Flat
}

type Coupon struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	Code      string          `json:"code" gorm:"size:64;uniqueIndex"`
	Type      DiscountType    `json:"discount_type" gorm:"size:16"`
	Value     decimal.Decimal `json:"value" gorm:"type:decimal(12,2)"`
	MinOrder  decimal.Decimal `json:"min_order" gorm:"type:decimal(12,2)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Amount is the discount this coupon grants on subtotal. Eligibility is
// checked when the coupon is applied, not here.
func (c *Coupon) Amount(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case Percent:
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	case Flat:
		return c.Value
	default:
		return decimal.Zero
	}
}

type RechargeCode struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	Code      string          `json:"code" gorm:"size:64;uniqueIndex"`
	Value     decimal.Decimal `json:"value" gorm:"type:decimal(12,2)"`
	IsUsed    bool            `json:"is_used" gorm:"index"`
	UsedBy    string          `json:"used_by,omitempty" gorm:"size:80"`
	UsedAt    *time.Time      `json:"used_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
