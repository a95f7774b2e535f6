package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"storefront/models"
	"storefront/random"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quick filters besides platform names.
const (
	QuickAll         = "All"
	QuickBestSelling = "Best Selling"
	QuickOffers      = "Offers"
)

// Sort orders.
const (
	SortFeatured  = "featured"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortRating    = "rating"
)

const bestSellingRating = 4.8

type CatalogQuery struct {
	Search   string
	Quick    string
	Platform string
	Genre    string
	Sort     string
	Page     int
	PageSize int
}

type CatalogPage struct {
	Items    []models.CatalogItem `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Pages    int                  `json:"pages"`
}

type CatalogService struct {
	db       *gorm.DB
	src      random.Source
	now      func() time.Time
	pageSize int
	logger   *slog.Logger
}

func NewCatalogService(db *gorm.DB, src random.Source, pageSize int, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return &CatalogService{db: db, src: src, now: time.Now, pageSize: pageSize, logger: logger}
}

func likePattern(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func (s *CatalogService) List(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	query := s.db.WithContext(ctx).Model(&models.CatalogItem{})

	if search := strings.TrimSpace(q.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ? ESCAPE '!'", likePattern(search))
	}

	switch quick := strings.TrimSpace(q.Quick); quick {
	case "", QuickAll:
	case QuickBestSelling:
		query = query.Where("rating >= ?", bestSellingRating)
	case QuickOffers:
		query = query.Where("discount > ?", 0)
	default:
		platform, ok := models.ParsePlatform(quick)
		if !ok {
			return nil, FieldErrors{"quick": fmt.Sprintf("unknown filter %q", quick)}
		}
		query = query.Where("platform = ?", platform)
	}

	if p := strings.TrimSpace(q.Platform); p != "" && p != QuickAll {
		platform, ok := models.ParsePlatform(p)
		if !ok {
			return nil, FieldErrors{"platform": fmt.Sprintf("unknown platform %q", p)}
		}
		query = query.Where("platform = ?", platform)
	}
	if genre := strings.TrimSpace(q.Genre); genre != "" && genre != QuickAll {
		query = query.Where("genre = ?", genre)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	switch q.Sort {
	case "", SortFeatured:
		query = query.Order("position ASC")
	case SortPriceLow:
		query = query.Order("price ASC").Order("position ASC")
	case SortPriceHigh:
		query = query.Order("price DESC").Order("position ASC")
	case SortRating:
		query = query.Order("rating DESC").Order("position ASC")
	default:
		return nil, FieldErrors{"sort": fmt.Sprintf("unknown sort %q", q.Sort)}
	}

	page := max(q.Page, 1)
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	var items []models.CatalogItem
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &CatalogPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// All returns the whole catalog in display order.
func (s *CatalogService) All(ctx context.Context) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if err := s.db.WithContext(ctx).Order("position ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Genres lists the distinct genres, sorted, with "All" first.
func (s *CatalogService) Genres(ctx context.Context) ([]string, error) {
	var genres []string
	if err := s.db.WithContext(ctx).Model(&models.CatalogItem{}).Distinct().Pluck("genre", &genres).Error; err != nil {
		return nil, err
	}
	sort.Strings(genres)
	return append([]string{QuickAll}, genres...), nil
}

// Similar returns up to limit other items of the same genre in random
// order.
func (s *CatalogService) Similar(ctx context.Context, id string, limit int) ([]models.CatalogItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var items []models.CatalogItem
	err = s.db.WithContext(ctx).
		Where("genre = ? AND id <> ?", item.Genre, item.ID).
		Order("position ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for i := len(items) - 1; i > 0; i-- {
		j := s.src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *CatalogService) applyDefaults(item *models.CatalogItem) {
	if item.ID == "" {
		item.ID = "game-" + uuid.NewString()
	}
	if item.Price.IsZero() && item.OriginalPrice.IsZero() {
		item.Price = decimal.NewFromInt(999)
	}
	if item.OriginalPrice.IsZero() {
		item.OriginalPrice = item.Price.Mul(decimal.NewFromFloat(1.5)).Floor()
	}
	if item.Rating == 0 {
		item.Rating = 4.5
	}
	if item.Platform == "" {
		item.Platform = models.Steam
	}
	if item.Genre == "" {
		item.Genre = "Action"
	}
	if item.ReleaseDate == "" {
		item.ReleaseDate = s.now().Format(time.DateOnly)
	}
	if item.Players == "" {
		item.Players = "Single-player"
	}
	item.Discount = models.DiscountPercent(item.OriginalPrice, item.Price)
}

func validateItem(item *models.CatalogItem) error {
	fields := FieldErrors{}
	if strings.TrimSpace(item.Title) == "" {
		fields["title"] = "title is required"
	}
	if item.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if item.OriginalPrice.IsNegative() {
		fields["original_price"] = "must not be negative"
	}
	if _, ok := models.ParsePlatform(string(item.Platform)); !ok {
		fields["platform"] = fmt.Sprintf("unknown platform %q", item.Platform)
	}
	return fields.orNil()
}

// Create fills defaults, validates and prepends item.
func (s *CatalogService) Create(ctx context.Context, item *models.CatalogItem) error {
	s.applyDefaults(item)
	if p, ok := models.ParsePlatform(string(item.Platform)); ok {
		item.Platform = p
	}
	if err := validateItem(item); err != nil {
		return err
	}
	return s.Prepend(ctx, item)
}

// Prepend stores item ahead of every existing item.
func (s *CatalogService) Prepend(ctx context.Context, items ...*models.CatalogItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var first int64
		if err := tx.Model(&models.CatalogItem{}).Select("COALESCE(MIN(position), 0)").Scan(&first).Error; err != nil {
			return err
		}
		for i := len(items) - 1; i >= 0; i-- {
			item := items[i]
			var exists int64
			if err := tx.Model(&models.CatalogItem{}).Where("id = ?", item.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				return fmt.Errorf("%w: %s", ErrDuplicateItem, item.ID)
			}
			first--
			item.Position = first
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			s.logger.Info("catalog item added", "id", item.ID, "title", item.Title, "price", item.Price)
		}
		return nil
	})
}

// Patch applies an RFC 7386 merge patch to the item. The id cannot change
// and the discount follows the patched prices.
func (s *CatalogService) Patch(ctx context.Context, id string, patch []byte) (*models.CatalogItem, error) {
	var updated models.CatalogItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CatalogItem
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		original, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		merged, err := jsonpatch.MergePatch(original, patch)
		if err != nil {
			return FieldErrors{"patch": err.Error()}
		}

		if err := json.Unmarshal(merged, &updated); err != nil {
			return FieldErrors{"patch": err.Error()}
		}
		updated.ID = existing.ID
		updated.Position = existing.Position
		updated.CreatedAt = existing.CreatedAt
		if p, ok := models.ParsePlatform(string(updated.Platform)); ok {
			updated.Platform = p
		}
		if err := validateItem(&updated); err != nil {
			return err
		}
		updated.Discount = models.DiscountPercent(updated.OriginalPrice, updated.Price)
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.CatalogItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	s.logger.Info("catalog item deleted", "id", id)
	return nil
}

// UpdatePriceByTitle sets the price of every item whose title contains
// title, case-insensitively, and recomputes each discount from the stored
// original price.
func (s *CatalogService) UpdatePriceByTitle(ctx context.Context, title string, price decimal.Decimal) ([]models.CatalogItem, error) {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil, ErrNoCatalogMatch
	}

	var matched []models.CatalogItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CatalogItem
		if err := tx.Order("position ASC").Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if !strings.Contains(strings.ToLower(item.Title), needle) {
				continue
			}
			item.SetPrice(price)
			if err := tx.Model(&models.CatalogItem{}).Where("id = ?", item.ID).
				Updates(map[string]any{"price": item.Price, "discount": item.Discount}).Error; err != nil {
				return err
			}
			matched = append(matched, item)
		}
		if len(matched) == 0 {
			return ErrNoCatalogMatch
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("catalog price updated", "title", title, "price", price, "matched", len(matched))
	return matched, nil
}

// Seed loads items in order when the catalog is empty.
func (s *CatalogService) Seed(ctx context.Context, items []models.CatalogItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CatalogItem{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for i := range items {
			items[i].Position = int64(i)
			items[i].Discount = models.DiscountPercent(items[i].OriginalPrice, items[i].Price)
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}
