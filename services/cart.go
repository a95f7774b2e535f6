package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"storefront/models"

	"github.com/shopspring/decimal"
)

const (
	bundleSize    = 3
	bundleTitle   = "Custom Gamer Box"
	bundleEdition = "Bundle"
	bundleImage   = "https://cdn-icons-png.flaticon.com/512/3081/3081840.png"
)

var bundleRate = decimal.NewFromInt(80)

func (s *Session) Cart() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartLine{}, s.cart...)
}

// setCartLocked persists next and only then makes it the session cart.
func (s *Session) setCartLocked(ctx context.Context, next []models.CartLine) error {
	if err := s.store.Save(ctx, s.deviceID, KeyCart, next); err != nil {
		return err
	}
	s.cart = next
	return nil
}

func (s *Session) cartEditableLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.checkout.state == StateProcessing {
		return ErrCheckoutBusy
	}
	return nil
}

func (s *Session) addLineLocked(ctx context.Context, line models.CartLine) error {
	next := slices.Clone(s.cart)
	for i := range next {
		if next[i].ID == line.ID {
			next[i].Quantity += line.Quantity
			return s.setCartLocked(ctx, next)
		}
	}
	return s.setCartLocked(ctx, append(next, line))
}

func (s *Session) lineFor(ctx context.Context, itemID string, editionIndex, quantity int) (models.CartLine, error) {
	if quantity < 1 {
		quantity = 1
	}
	item, err := s.deps.Catalog.Get(ctx, itemID)
	if err != nil {
		return models.CartLine{}, err
	}
	edition, ok := item.EditionAt(editionIndex)
	if !ok {
		return models.CartLine{}, FieldErrors{"edition": fmt.Sprintf("no edition %d for %s", editionIndex, item.Title)}
	}
	image := edition.Image
	if image == "" {
		image = item.Image
	}
	return models.CartLine{
		ID:       models.LineID(item.ID, edition.Name),
		ItemID:   item.ID,
		Title:    item.Title,
		Platform: item.Platform,
		Image:    image,
		Edition:  edition.Name,
		Price:    edition.Price,
		Quantity: quantity,
	}, nil
}

// AddToCart adds quantity of the chosen edition, merging with an existing
// line for the same item and edition.
func (s *Session) AddToCart(ctx context.Context, itemID string, editionIndex, quantity int) ([]models.CartLine, error) {
	line, err := s.lineFor(ctx, itemID, editionIndex, quantity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartEditableLocked(); err != nil {
		return nil, err
	}
	if err := s.addLineLocked(ctx, line); err != nil {
		return nil, err
	}
	return append([]models.CartLine{}, s.cart...), nil
}

// UpdateQuantity changes a line's quantity by delta. Quantity never drops
// below one; removal is explicit.
func (s *Session) UpdateQuantity(ctx context.Context, lineID string, delta int) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartEditableLocked(); err != nil {
		return nil, err
	}

	next := slices.Clone(s.cart)
	i := slices.IndexFunc(next, func(l models.CartLine) bool { return l.ID == lineID })
	if i < 0 {
		return nil, ErrLineNotFound
	}
	next[i].Quantity = max(1, next[i].Quantity+delta)
	if err := s.setCartLocked(ctx, next); err != nil {
		return nil, err
	}
	return append([]models.CartLine{}, s.cart...), nil
}

func (s *Session) RemoveLine(ctx context.Context, lineID string) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartEditableLocked(); err != nil {
		return nil, err
	}

	next := slices.DeleteFunc(slices.Clone(s.cart), func(l models.CartLine) bool { return l.ID == lineID })
	if len(next) == len(s.cart) {
		return nil, ErrLineNotFound
	}
	if err := s.setCartLocked(ctx, next); err != nil {
		return nil, err
	}
	return append([]models.CartLine{}, s.cart...), nil
}

func (s *Session) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartEditableLocked(); err != nil {
		return err
	}
	return s.setCartLocked(ctx, []models.CartLine{})
}

// AddBundle adds exactly three distinct catalog items as one line priced
// at 80% of their combined price, floored.
func (s *Session) AddBundle(ctx context.Context, itemIDs []string) ([]models.CartLine, error) {
	ids := slices.Clone(itemIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(itemIDs) != bundleSize || len(ids) != bundleSize {
		return nil, FieldErrors{"items": fmt.Sprintf("pick exactly %d different items", bundleSize)}
	}

	total := decimal.Zero
	titles := make([]string, 0, bundleSize)
	for _, id := range itemIDs {
		item, err := s.deps.Catalog.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		total = total.Add(item.Price)
		titles = append(titles, item.Title)
	}

	itemID := "bundle-" + strings.Join(ids, "+")
	line := models.CartLine{
		ID:       models.LineID(itemID, bundleEdition),
		ItemID:   itemID,
		Title:    bundleTitle + " (" + strings.Join(titles, ", ") + ")",
		Platform: models.Steam,
		Image:    bundleImage,
		Edition:  bundleEdition,
		Price:    total.Mul(bundleRate).Div(hundred).Floor(),
		Quantity: 1,
		IsBundle: true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartEditableLocked(); err != nil {
		return nil, err
	}
	if err := s.addLineLocked(ctx, line); err != nil {
		return nil, err
	}
	return append([]models.CartLine{}, s.cart...), nil
}

func (s *Session) Wishlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.wishlist...)
}

// ToggleWishlist adds or removes itemID and reports whether it is now on
// the wishlist.
func (s *Session) ToggleWishlist(ctx context.Context, itemID string) (bool, error) {
	if _, err := s.deps.Catalog.Get(ctx, itemID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.wishlist)
	added := !slices.Contains(next, itemID)
	if added {
		next = append(next, itemID)
	} else {
		next = slices.DeleteFunc(next, func(id string) bool { return id == itemID })
	}
	if err := s.store.Save(ctx, s.deviceID, KeyWishlist, next); err != nil {
		return false, err
	}
	s.wishlist = next
	return added, nil
}
