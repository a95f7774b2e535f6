package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponNotFound      = errors.New("Invalid or expired coupon code.")
	ErrInvalidRechargeCode = errors.New("Invalid or used code.")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrItemNotFound        = errors.New("item not found")
	ErrUpcomingNotFound    = errors.New("upcoming release not found")
	ErrDuplicateItem       = errors.New("item already exists")
	ErrNoCatalogMatch      = errors.New("no catalog item matches that title")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrLineNotFound        = errors.New("cart line not found")
	ErrInvalidTransition   = errors.New("invalid checkout transition")
	ErrCheckoutBusy        = errors.New("payment is processing")
	ErrSessionClosed       = errors.New("session closed")
	ErrAlreadySpun         = errors.New("wheel already spun this session")
	ErrLootAlreadyClaimed  = errors.New("daily loot already claimed today")
	ErrUnknownTool         = errors.New("unknown tool")
	ErrInvalidToolArgs     = errors.New("invalid tool arguments")
	ErrAssistantFailed     = errors.New("assistant unavailable")
)

// MinOrderError rejects a coupon whose minimum order is not met.
type MinOrderError struct {
	Code     string
	Required decimal.Decimal
}

func (e *MinOrderError) Error() string {
	return fmt.Sprintf("Minimum order of ₹%s required.", e.Required.String())
}

// FieldErrors maps a request field to its validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+fe[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// orNil lets callers build FieldErrors unconditionally and return them
// as a nil error when nothing failed.
func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
