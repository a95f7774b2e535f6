package services

import (
	"context"

	"github.com/shopspring/decimal"
)

const noWinMessage = "BAD LUCK"

// Spin starts the session's only wheel spin. The outcome resolves after
// the spin duration; poll SpinResult for it.
func (s *Session) Spin() (SpinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SpinResult{}, ErrSessionClosed
	}
	if s.spin != nil {
		return *s.spin, ErrAlreadySpun
	}

	s.rotation = NextRotation(s.rotation, s.deps.FullTurns, s.deps.Random)
	s.spin = &SpinResult{Rotation: s.rotation, Segment: -1}

	if s.deps.SpinDuration <= 0 {
		s.resolveSpinLocked(context.Background())
		return *s.spin, nil
	}
	s.spinTimer = s.deps.Clock.AfterFunc(s.deps.SpinDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.spin == nil || s.spin.Resolved {
			return
		}
		s.resolveSpinLocked(context.Background())
	})
	return *s.spin, nil
}

// SpinResult reports the spin, if one was started.
func (s *Session) SpinResult() (SpinResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spin == nil {
		return SpinResult{Segment: -1}, false
	}
	return *s.spin, true
}

func (s *Session) resolveSpinLocked(ctx context.Context) {
	result := s.spin
	result.Resolved = true
	result.Segment = ResolveSegment(result.Rotation, len(s.deps.Prizes))
	if len(s.deps.Prizes) > 0 {
		result.Prize = s.deps.Prizes[result.Segment]
	}
	result.Balance = s.ledger.Balance()
	result.Message = noWinMessage
	s.spinTimer = nil

	if !result.Prize.Value.IsPositive() {
		s.logger.Info("wheel resolved", "segment", result.Segment, "won", false)
		return
	}
	balance, err := s.ledger.Credit(ctx, result.Prize.Value)
	if err != nil {
		s.logger.Error("crediting wheel prize failed", "prize", result.Prize.Label, "error", err)
		return
	}
	result.Won = true
	result.Balance = balance
	result.Message = rupees(result.Prize.Value)
	s.logger.Info("wheel resolved", "segment", result.Segment, "won", true, "value", result.Prize.Value)
}

// ClaimLoot draws today's loot. A second claim on the same local date is
// refused without drawing. A coupon code in the reward is placed in the
// coupon box for the shopper to apply.
func (s *Session) ClaimLoot(ctx context.Context) (LootResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := LootDate(s.deps.Clock.Now(), s.deps.Location)
	if s.lootDate == today {
		return LootResult{Date: today, Balance: s.ledger.Balance()}, ErrLootAlreadyClaimed
	}

	// the date is written before anything is granted so a failure can
	// never grant twice
	if err := s.store.Save(ctx, s.deviceID, KeyLootDate, today); err != nil {
		return LootResult{}, err
	}
	s.lootDate = today

	reward := DrawLoot(s.deps.Loot, s.deps.Random)
	result := LootResult{Date: today, Reward: reward, Balance: s.ledger.Balance()}
	if reward.CouponCode != "" {
		s.couponInput = reward.CouponCode
		s.couponError = ""
	}
	if reward.Credit.GreaterThan(decimal.Zero) {
		balance, err := s.ledger.Credit(ctx, reward.Credit)
		if err != nil {
			return result, err
		}
		result.Balance = balance
	}
	s.logger.Info("daily loot claimed", "date", today, "reward", reward.Label)
	return result, nil
}

// LootClaimedToday reports whether today's loot is already taken.
func (s *Session) LootClaimedToday() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lootDate == LootDate(s.deps.Clock.Now(), s.deps.Location)
}
