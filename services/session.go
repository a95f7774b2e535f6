package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storefront/clock"
	"storefront/config"
	"storefront/models"
	"storefront/random"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SessionDeps are the collaborators shared by every device session.
type SessionDeps struct {
	DB              *gorm.DB
	Catalog         *CatalogService
	Coupons         *CouponService
	Pricer          Pricer
	Delivery        Delivery
	Clock           clock.Clock
	Random          random.Source
	Location        *time.Location
	ProcessingDelay time.Duration
	SpinDuration    time.Duration
	FullTurns       int
	Prizes          []models.PrizeSegment
	Loot            []models.LootReward
	Logger          *slog.Logger
}

// NewSessionDeps wires the defaults from cfg; callers set the services.
func NewSessionDeps(cfg config.Config, loc *time.Location) SessionDeps {
	return SessionDeps{
		Pricer:          NewPricer(cfg.Pricing),
		Delivery:        NewDelivery(cfg.Checkout),
		Clock:           clock.Real(),
		Location:        loc,
		ProcessingDelay: cfg.Checkout.ProcessingDelay,
		SpinDuration:    cfg.Rewards.SpinDuration,
		FullTurns:       cfg.Rewards.FullTurns,
		Prizes:          models.DefaultPrizeSegments(),
		Loot:            models.DefaultLootRewards(),
	}
}

// Sessions holds one Session per device.
type Sessions struct {
	deps     SessionDeps
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewSessions(deps SessionDeps) *Sessions {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Sessions{deps: deps, sessions: make(map[string]*Session)}
}

// Get returns the session for deviceID, restoring its persisted state on
// first use.
func (s *Sessions) Get(ctx context.Context, deviceID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if session, ok := s.sessions[deviceID]; ok {
		session.lastUsed = s.deps.Clock.Now()
		return session, nil
	}
	session, err := openSession(ctx, &s.deps, deviceID)
	if err != nil {
		return nil, err
	}
	session.lastUsed = s.deps.Clock.Now()
	s.sessions[deviceID] = session
	return session, nil
}

// EvictIdle closes and drops every session untouched for maxIdle, except
// those with an order processing or the wheel still turning. Persisted
// state comes back on the next Get. It returns the evicted device IDs.
func (s *Sessions) EvictIdle(maxIdle time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.deps.Clock.Now()
	var evicted []string
	for id, session := range s.sessions {
		if now.Sub(session.lastUsed) < maxIdle || session.busy() {
			continue
		}
		session.Close()
		delete(s.sessions, id)
		evicted = append(evicted, id)
	}
	if len(evicted) > 0 {
		s.deps.Logger.Info("evicted idle sessions", "count", len(evicted), "open", len(s.sessions))
	}
	return evicted
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops every pending timer. Sessions cannot be opened afterwards.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, session := range s.sessions {
		session.Close()
	}
}

// Session is one device's storefront state. Every method, and every timer
// callback, runs under the session mutex so transitions apply in order.
type Session struct {
	mu       sync.Mutex
	deps     *SessionDeps
	deviceID string
	store    *DeviceStore
	ledger   *Ledger
	logger   *slog.Logger
	closed   bool
	lastUsed time.Time // guarded by Sessions.mu

	cart          []models.CartLine
	wishlist      []string
	lifetimeSpend decimal.Decimal
	lootDate      string

	coupon      *models.Coupon
	couponInput string
	couponError string
	useWallet   bool

	rotation  float64
	spin      *SpinResult
	spinTimer *clock.Timer

	checkout checkout
}

func openSession(ctx context.Context, deps *SessionDeps, deviceID string) (*Session, error) {
	logger := deps.Logger.With("device", deviceID)
	ledger, err := OpenLedger(ctx, deps.DB, deviceID, deps.Logger)
	if err != nil {
		return nil, err
	}
	session := &Session{
		deps:          deps,
		deviceID:      deviceID,
		store:         NewDeviceStore(deps.DB),
		ledger:        ledger,
		logger:        logger,
		lifetimeSpend: decimal.Zero,
		checkout:      checkout{state: StateCart},
	}
	restore := []struct {
		key string
		dst any
	}{
		{KeyCart, &session.cart},
		{KeyWishlist, &session.wishlist},
		{KeyLifetimeSpend, &session.lifetimeSpend},
		{KeyLootDate, &session.lootDate},
	}
	for _, r := range restore {
		if _, err := session.store.Load(ctx, deviceID, r.key, r.dst); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", deviceID, err)
		}
	}
	return session, nil
}

func (s *Session) DeviceID() string { return s.deviceID }

func (s *Session) Ledger() *Ledger { return s.ledger }

// Close cancels the pending countdown and wheel resolution.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.spinTimer.Stop()
	s.checkout.timer.Stop()
	s.checkout.generation++
}

// busy reports whether a timer still has to move this session forward.
func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout.state == StateProcessing || (s.spin != nil && !s.spin.Resolved)
}

// CouponState is the coupon box as the shopper sees it.
type CouponState struct {
	Input   string         `json:"input"`
	Applied *models.Coupon `json:"applied,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Summary is a snapshot of the session for display.
type Summary struct {
	Cart          []models.CartLine `json:"cart"`
	Wishlist      []string          `json:"wishlist"`
	Totals        Totals            `json:"totals"`
	Coupon        CouponState       `json:"coupon"`
	UseWallet     bool              `json:"use_wallet"`
	WalletBalance decimal.Decimal   `json:"wallet_balance"`
	LifetimeSpend decimal.Decimal   `json:"lifetime_spend"`
	Rank          models.Rank       `json:"rank"`
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() Summary {
	return Summary{
		Cart:          append([]models.CartLine{}, s.cart...),
		Wishlist:      append([]string{}, s.wishlist...),
		Totals:        s.totalsLocked(),
		Coupon:        s.couponStateLocked(),
		UseWallet:     s.useWallet,
		WalletBalance: s.ledger.Balance(),
		LifetimeSpend: s.lifetimeSpend,
		Rank:          s.deps.Pricer.RankFor(s.lifetimeSpend),
	}
}

func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked()
}

func (s *Session) totalsLocked() Totals {
	return s.deps.Pricer.Price(Quote{
		Lines:         s.cart,
		Rank:          s.deps.Pricer.RankFor(s.lifetimeSpend),
		Coupon:        s.coupon,
		UseWallet:     s.useWallet,
		WalletBalance: s.ledger.Balance(),
	})
}

func (s *Session) couponStateLocked() CouponState {
	return CouponState{Input: s.couponInput, Applied: s.coupon, Error: s.couponError}
}

// ApplyCoupon validates code against the current subtotal and makes it
// the active coupon. An empty code does nothing. On failure the active
// coupon is left as it was and the error is recorded for display.
func (s *Session) ApplyCoupon(ctx context.Context, code string) (CouponState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		return s.couponStateLocked(), nil
	}
	s.couponInput = NormalizeCode(code)

	coupon, err := s.deps.Coupons.Validate(ctx, code, Subtotal(s.cart))
	if err != nil {
		s.couponError = err.Error()
		return s.couponStateLocked(), err
	}
	s.coupon = coupon
	s.couponError = ""
	s.logger.Info("coupon applied", "code", coupon.Code)
	return s.couponStateLocked(), nil
}

func (s *Session) ClearCoupon() CouponState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCouponLocked()
	return s.couponStateLocked()
}

func (s *Session) clearCouponLocked() {
	s.coupon = nil
	s.couponInput = ""
	s.couponError = ""
}

func (s *Session) SetUseWallet(use bool) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useWallet = use
	return s.totalsLocked()
}

// Redeem credits a recharge code to this device's wallet.
func (s *Session) Redeem(ctx context.Context, code string) (*models.RechargeCode, error) {
	return s.ledger.Redeem(ctx, code)
}

func (s *Session) Rank() models.Rank {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps.Pricer.RankFor(s.lifetimeSpend)
}
