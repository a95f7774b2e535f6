package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	ID       string          `json:"id"`
	ItemID   string          `json:"item_id"`
	Title    string          `json:"title"`
	Platform Platform        `json:"platform"`
	Image    string          `json:"image,omitempty"`
	Edition  string          `json:"edition"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	IsBundle bool            `json:"is_bundle,omitempty"`
}

// LineID is the cart identity of an (item, edition) pair.
func LineID(itemID, edition string) string {
	return itemID + "-" + strings.ToLower(strings.Join(strings.Fields(edition), "-"))
}

func (l CartLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type PaymentMethod string

const (
	PaymentUPI        PaymentMethod = "upi"
	PaymentCard       PaymentMethod = "card"
	PaymentNetBanking PaymentMethod = "netbanking"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentUPI, PaymentCard, PaymentNetBanking:
		return true
	}
	return false
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Order is the immutable record captured when payment is confirmed.
type Order struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	Date           string          `json:"date"`
	Customer       Contact         `json:"customer"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	Lines          []CartLine      `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	RankDiscount   decimal.Decimal `json:"rank_discount"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	WalletUsed     decimal.Decimal `json:"wallet_used"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	AccessCode     string          `json:"access_code,omitempty"`
}
