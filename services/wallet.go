package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storefront/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger is one device's wallet. The balance is restored from the device
// store when the ledger opens and written back before every change is
// applied in memory, so a failed write leaves the balance untouched.
type Ledger struct {
	mu       sync.Mutex
	db       *gorm.DB
	store    *DeviceStore
	deviceID string
	balance  decimal.Decimal
	logger   *slog.Logger
}

func OpenLedger(ctx context.Context, db *gorm.DB, deviceID string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		db:       db,
		store:    NewDeviceStore(db),
		deviceID: deviceID,
		balance:  decimal.Zero,
		logger:   logger.With("device", deviceID),
	}
	if _, err := l.store.Load(ctx, deviceID, KeyWalletBalance, &l.balance); err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if l.balance.IsNegative() {
		l.balance = decimal.Zero
	}
	return l, nil
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) Credit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.balance.Add(amount)
	if err := l.store.Save(ctx, l.deviceID, KeyWalletBalance, next); err != nil {
		return l.balance, err
	}
	l.balance = next
	l.logger.Info("wallet credited", "amount", amount, "balance", next)
	return next, nil
}

// Debit refuses any amount above the current balance.
func (l *Ledger) Debit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.GreaterThan(l.balance) {
		return l.balance, ErrInsufficientBalance
	}
	next := l.balance.Sub(amount)
	if err := l.store.Save(ctx, l.deviceID, KeyWalletBalance, next); err != nil {
		return l.balance, err
	}
	l.balance = next
	l.logger.Info("wallet debited", "amount", amount, "balance", next)
	return next, nil
}

// Redeem marks an unused recharge code as used and credits its value in
// one transaction. Codes match exactly.
func (l *Ledger) Redeem(ctx context.Context, code string) (*models.RechargeCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidRechargeCode
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var redeemed models.RechargeCode
	var next decimal.Decimal
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ? AND is_used = ?", code, false).First(&redeemed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRechargeCode
			}
			return err
		}

		now := time.Now()
		result := tx.Model(&models.RechargeCode{}).
			Where("id = ? AND is_used = ?", redeemed.ID, false).
			Updates(map[string]any{"is_used": true, "used_by": l.deviceID, "used_at": now})
		if result.Error != nil {
			return result.Error
		}
		// another device won the race
		if result.RowsAffected == 0 {
			return ErrInvalidRechargeCode
		}
		redeemed.IsUsed = true
		redeemed.UsedBy = l.deviceID
		redeemed.UsedAt = &now

		next = l.balance.Add(redeemed.Value)
		return l.store.WithTx(tx).Save(ctx, l.deviceID, KeyWalletBalance, next)
	})
	if err != nil {
		return nil, err
	}

	l.balance = next
	l.logger.Info("recharge code redeemed", "code", redeemed.Code, "value", redeemed.Value, "balance", next)
	return &redeemed, nil
}
