package services

import (
	"storefront/config"
	"storefront/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricer computes cart totals. It holds no state and never touches the
// wallet; debits happen when an order completes.
type Pricer struct {
	PlatformFee      decimal.Decimal
	WalletCapPercent decimal.Decimal
	ProThreshold     decimal.Decimal
	GodTierThreshold decimal.Decimal
	ProRate          decimal.Decimal
	GodTierRate      decimal.Decimal
}

func NewPricer(cfg config.Pricing) Pricer {
	return Pricer{
		PlatformFee:      cfg.PlatformFee,
		WalletCapPercent: cfg.WalletCapPercent,
		ProThreshold:     cfg.ProThreshold,
		GodTierThreshold: cfg.GodTierThreshold,
		ProRate:          cfg.ProRate,
		GodTierRate:      cfg.GodTierRate,
	}
}

// RankFor maps lifetime spend to a loyalty rank. Both thresholds are
// inclusive.
func (p Pricer) RankFor(lifetimeSpend decimal.Decimal) models.Rank {
	switch {
	case lifetimeSpend.GreaterThanOrEqual(p.GodTierThreshold):
		return models.GodTier
	case lifetimeSpend.GreaterThanOrEqual(p.ProThreshold):
		return models.Pro
	default:
		return models.Noob
	}
}

func (p Pricer) rankRate(rank models.Rank) decimal.Decimal {
	switch rank {
	case models.GodTier:
		return p.GodTierRate
	case models.Pro:
		return p.ProRate
	default:
		return decimal.Zero
	}
}

// Quote is the input to a totals computation.
type Quote struct {
	Lines         []models.CartLine
	Rank          models.Rank
	Coupon        *models.Coupon
	UseWallet     bool
	WalletBalance decimal.Decimal
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Rank           models.Rank     `json:"rank"`
	RankDiscount   decimal.Decimal `json:"rank_discount"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	WalletOffset   decimal.Decimal `json:"wallet_offset"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}

func Subtotal(lines []models.CartLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Total())
	}
	return subtotal
}

// Price computes the totals for q. Discounts stack and are floored once;
// the payable total never drops below zero.
func (p Pricer) Price(q Quote) Totals {
	t := Totals{
		Subtotal:       Subtotal(q.Lines),
		Rank:           q.Rank,
		CouponDiscount: decimal.Zero,
		WalletOffset:   decimal.Zero,
		PlatformFee:    decimal.Zero,
	}

	t.RankDiscount = t.Subtotal.Mul(p.rankRate(q.Rank)).Div(hundred)
	if q.Coupon != nil {
		t.CouponCode = q.Coupon.Code
		t.CouponDiscount = q.Coupon.Amount(t.Subtotal)
	}
	t.TotalDiscount = t.RankDiscount.Add(t.CouponDiscount).Floor()

	if q.UseWallet && q.WalletBalance.IsPositive() {
		walletCap := t.Subtotal.Mul(p.WalletCapPercent).Div(hundred).Floor()
		t.WalletOffset = decimal.Min(q.WalletBalance, walletCap)
	}

	if len(q.Lines) > 0 {
		t.PlatformFee = p.PlatformFee
	}

	t.FinalTotal = decimal.Max(decimal.Zero,
		t.Subtotal.Add(t.PlatformFee).Sub(t.TotalDiscount).Sub(t.WalletOffset))
	return t
}
