package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Rank string

const (
	Noob    Rank = "Noob"
	Pro     Rank = "Pro"
	GodTier Rank = "God Tier"
)

// PrizeSegment is one equal-width slice of the prize wheel.
type PrizeSegment struct {
	Label string          `json:"label"`
	Code  string          `json:"code,omitempty"`
	Value decimal.Decimal `json:"value"`
}

type LootReward struct {
	Label      string          `json:"label"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Credit     decimal.Decimal `json:"credit"`
}

func DefaultPrizeSegments() []PrizeSegment {
	return []PrizeSegment{
		{Label: "₹10", Code: "CASH10", Value: decimal.NewFromInt(10)},
		{Label: "TRY AGAIN", Value: decimal.Zero},
		{Label: "₹100", Code: "CASH100", Value: decimal.NewFromInt(100)},
		{Label: "₹20", Code: "CASH20", Value: decimal.NewFromInt(20)},
		{Label: "₹50", Code: "CASH50", Value: decimal.NewFromInt(50)},
		{Label: "NO LUCK", Value: decimal.Zero},
		{Label: "₹30", Code: "CASH30", Value: decimal.NewFromInt(30)},
		{Label: "JACKPOT ₹200", Code: "CASH200", Value: decimal.NewFromInt(200)},
	}
}

func DefaultLootRewards() []LootReward {
	return []LootReward{
		{Label: "₹50 OFF", CouponCode: "LOOT50"},
		{Label: "5% OFF", CouponCode: "LOOT5"},
		{Label: "₹10 OFF", CouponCode: "LUCKY10"},
		{Label: "Better Luck Next Time"},
	}
}

// DeviceState is one device-scoped key/value entry. Value holds JSON.
type DeviceState struct {
	DeviceID  string `gorm:"primaryKey;size:80"`
	Key       string `gorm:"primaryKey;size:64;column:state_key"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
