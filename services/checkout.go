package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"storefront/clock"
	"storefront/models"
	"storefront/random"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type CheckoutState string

const (
	StateCart             CheckoutState = "cart"
	StateAddressCollected CheckoutState = "address_collected"
	StatePaymentChosen    CheckoutState = "payment_method_chosen"
	StateProcessing       CheckoutState = "processing"
	StateSucceeded        CheckoutState = "succeeded"
	orderDateLayout                     = "02/01/2006"
	accessCodeLength                    = 9
)

type checkout struct {
	state    CheckoutState
	contact  models.Contact
	method   models.PaymentMethod
	pending  *models.Order
	deadline time.Time
	timer    *clock.Timer
	// bumped whenever a pending countdown is abandoned
	generation uint64
	last       *models.Order
}

// CheckoutStatus is what the checkout view renders.
type CheckoutStatus struct {
	State            CheckoutState        `json:"state"`
	Contact          models.Contact       `json:"contact"`
	PaymentMethod    models.PaymentMethod `json:"payment_method,omitempty"`
	RemainingSeconds int                  `json:"remaining_seconds,omitempty"`
	Order            *models.Order        `json:"order,omitempty"`
	PaymentURI       string               `json:"payment_uri,omitempty"`
	PaymentQRURL     string               `json:"payment_qr_url,omitempty"`
	Message          string               `json:"message,omitempty"`
	MessageLink      string               `json:"message_link,omitempty"`
}

func validateContact(c models.Contact) error {
	fields := FieldErrors{}
	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "Name is required"
	}
	if !isTenDigits(c.Phone) {
		fields["phone"] = "Enter a valid 10-digit phone number"
	}
	if email := strings.TrimSpace(c.Email); email != "" {
		if err := validate.Var(email, "email"); err != nil {
			fields["email"] = "Enter a valid email address"
		}
	}
	return fields.orNil()
}

func isTenDigits(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Session) Status() CheckoutStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() CheckoutStatus {
	c := s.checkout
	status := CheckoutStatus{
		State:         c.state,
		Contact:       c.contact,
		PaymentMethod: c.method,
	}
	switch c.state {
	case StatePaymentChosen:
		amount := s.totalsLocked().FinalTotal
		status.PaymentURI = s.deps.Delivery.PaymentURI(amount)
		status.PaymentQRURL = s.deps.Delivery.PaymentQRURL(amount)
	case StateProcessing:
		remaining := c.deadline.Sub(s.deps.Clock.Now()).Seconds()
		status.RemainingSeconds = max(0, int(math.Ceil(remaining)))
		status.Order = c.pending
	case StateSucceeded:
		status.Order = c.last
		if c.last != nil {
			status.Message = OrderMessage(*c.last)
			status.MessageLink = s.deps.Delivery.MessageLink(status.Message)
		}
	}
	return status
}

// SubmitContact records the buyer's details and moves to
// AddressCollected. Invalid fields come back as FieldErrors and leave the
// state unchanged.
func (s *Session) SubmitContact(ctx context.Context, contact models.Contact) (CheckoutStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout.state == StateProcessing {
		return s.statusLocked(), ErrCheckoutBusy
	}
	if len(s.cart) == 0 {
		return s.statusLocked(), ErrEmptyCart
	}
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Phone = strings.TrimSpace(contact.Phone)
	contact.Email = strings.TrimSpace(contact.Email)
	if err := validateContact(contact); err != nil {
		return s.statusLocked(), err
	}

	s.checkout.contact = contact
	s.checkout.method = ""
	s.checkout.state = StateAddressCollected
	return s.statusLocked(), nil
}

func (s *Session) ChoosePayment(method models.PaymentMethod) (CheckoutStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout.state != StateAddressCollected && s.checkout.state != StatePaymentChosen {
		return s.statusLocked(), ErrInvalidTransition
	}
	if !method.Valid() {
		return s.statusLocked(), FieldErrors{"payment_method": fmt.Sprintf("unknown payment method %q", method)}
	}
	s.checkout.method = method
	s.checkout.state = StatePaymentChosen
	return s.statusLocked(), nil
}

// Confirm snapshots the cart, totals and wallet amount into an order and
// starts the processing countdown. The order completes when the countdown
// fires unless Cancel or Close intervenes first.
func (s *Session) Confirm(ctx context.Context) (CheckoutStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout.state != StatePaymentChosen {
		return s.statusLocked(), ErrInvalidTransition
	}
	if len(s.cart) == 0 {
		return s.statusLocked(), ErrEmptyCart
	}

	now := s.deps.Clock.Now()
	totals := s.totalsLocked()
	order := &models.Order{
		ID:             fmt.Sprintf("#ORD-%d", 100000+s.deps.Random.IntN(900000)),
		CreatedAt:      now,
		Date:           now.In(s.deps.Location).Format(orderDateLayout),
		Customer:       s.checkout.contact,
		PaymentMethod:  s.checkout.method,
		Lines:          append([]models.CartLine{}, s.cart...),
		Subtotal:       totals.Subtotal,
		PlatformFee:    totals.PlatformFee,
		RankDiscount:   totals.RankDiscount,
		CouponCode:     totals.CouponCode,
		CouponDiscount: totals.CouponDiscount,
		TotalDiscount:  totals.TotalDiscount,
		WalletUsed:     totals.WalletOffset,
		FinalTotal:     totals.FinalTotal,
	}

	s.checkout.generation++
	generation := s.checkout.generation
	s.checkout.pending = order
	s.checkout.state = StateProcessing
	s.checkout.deadline = now.Add(s.deps.ProcessingDelay)
	s.logger.Info("payment processing", "order", order.ID, "final_total", order.FinalTotal, "wallet_used", order.WalletUsed)

	if s.deps.ProcessingDelay <= 0 {
		s.completeLocked(ctx)
		return s.statusLocked(), nil
	}
	s.checkout.timer = s.deps.Clock.AfterFunc(s.deps.ProcessingDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.checkout.generation != generation || s.checkout.state != StateProcessing {
			return
		}
		s.completeLocked(context.Background())
	})
	return s.statusLocked(), nil
}

// completeLocked finishes the pending order: access code, wallet debit,
// lifetime spend, then a cleared cart and form.
func (s *Session) completeLocked(ctx context.Context) {
	order := s.checkout.pending
	order.AccessCode = "ACCESS-" + random.Code(s.deps.Random, accessCodeLength)

	if order.WalletUsed.IsPositive() {
		if _, err := s.ledger.Debit(ctx, order.WalletUsed); err != nil {
			s.logger.Error("wallet debit failed", "order", order.ID, "amount", order.WalletUsed, "error", err)
		}
	}

	spend := s.lifetimeSpend.Add(order.FinalTotal)
	if err := s.store.Save(ctx, s.deviceID, KeyLifetimeSpend, spend); err != nil {
		s.logger.Error("saving lifetime spend failed", "order", order.ID, "error", err)
	} else {
		s.lifetimeSpend = spend
	}

	if err := s.setCartLocked(ctx, []models.CartLine{}); err != nil {
		s.logger.Error("clearing cart failed", "order", order.ID, "error", err)
		s.cart = nil
	}
	s.clearCouponLocked()
	s.useWallet = false

	s.checkout.last = order
	s.checkout.pending = nil
	s.checkout.timer = nil
	s.checkout.contact = models.Contact{}
	s.checkout.state = StateSucceeded
	s.logger.Info("payment completed", "order", order.ID, "access_code", order.AccessCode)
}

// Cancel abandons a processing payment. The countdown is stopped and a
// callback already in flight is ignored.
func (s *Session) Cancel() (CheckoutStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout.state != StateProcessing {
		return s.statusLocked(), ErrInvalidTransition
	}
	s.checkout.timer.Stop()
	s.checkout.timer = nil
	s.checkout.generation++
	s.logger.Info("payment cancelled", "order", s.checkout.pending.ID)
	s.checkout.pending = nil
	s.checkout.state = StatePaymentChosen
	return s.statusLocked(), nil
}

// Reset returns to the cart view. A processing payment must be cancelled
// first.
func (s *Session) Reset() (CheckoutStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkout.state == StateProcessing {
		return s.statusLocked(), ErrCheckoutBusy
	}
	s.checkout = checkout{state: StateCart, generation: s.checkout.generation}
	return s.statusLocked(), nil
}

// BuyNow puts the chosen edition in the cart if it is not there yet and
// opens checkout at the contact step.
func (s *Session) BuyNow(ctx context.Context, itemID string, editionIndex int) (CheckoutStatus, error) {
	line, err := s.lineFor(ctx, itemID, editionIndex, 1)
	if err != nil {
		return CheckoutStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartEditableLocked(); err != nil {
		return s.statusLocked(), err
	}
	exists := false
	for _, l := range s.cart {
		if l.ID == line.ID {
			exists = true
			break
		}
	}
	if !exists {
		if err := s.addLineLocked(ctx, line); err != nil {
			return s.statusLocked(), err
		}
	}
	s.checkout = checkout{state: StateCart, generation: s.checkout.generation}
	return s.statusLocked(), nil
}

// LastOrder is the most recently completed order, if any.
func (s *Session) LastOrder() (*models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkout.last, s.checkout.last != nil
}

// PaymentAmount is what the payment URI asks for right now.
func (s *Session) PaymentAmount() decimal.Decimal {
	return s.Totals().FinalTotal
}
