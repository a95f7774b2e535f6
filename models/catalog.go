package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Platform string

const (
	Steam     Platform = "Steam"
	Epic      Platform = "Epic"
	Ubisoft   Platform = "Ubisoft"
	BattleNet Platform = "BattleNet"
	PS5       Platform = "PS5"
	Xbox      Platform = "Xbox"
)

var Platforms = []Platform{Steam, Epic, Ubisoft, BattleNet, PS5, Xbox}

// ParsePlatform matches a platform name case-insensitively.
func ParsePlatform(s string) (Platform, bool) {
	for _, p := range Platforms {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

type Edition struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
	Perks []string        `json:"perks,omitempty"`
}

type SystemRequirements struct {
	OS        string `json:"os"`
	Processor string `json:"processor"`
	Memory    string `json:"memory"`
	Graphics  string `json:"graphics"`
	Storage   string `json:"storage"`
}

type Review struct {
	User    string  `json:"user"`
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

type CatalogItem struct {
	ID            string             `json:"id" gorm:"primaryKey;size:80"`
	Title         string             `json:"title" gorm:"size:255;index"`
	Price         decimal.Decimal    `json:"price" gorm:"type:decimal(12,2)"`
	OriginalPrice decimal.Decimal    `json:"original_price" gorm:"type:decimal(12,2)"`
	Discount      int                `json:"discount"`
	Rating        float64            `json:"rating"`
	Image         string             `json:"image" gorm:"size:512"`
	Video         string             `json:"video" gorm:"size:512"`
	Platform      Platform           `json:"platform" gorm:"size:20;index"`
	Genre         string             `json:"genre" gorm:"size:80;index"`
	ReleaseDate   string             `json:"release_date" gorm:"size:20"`
	Description   string             `json:"description" gorm:"type:text"`
	Players       string             `json:"players" gorm:"size:80"`
	SystemReq     SystemRequirements `json:"system_req" gorm:"serializer:json"`
	Reviews       []Review           `json:"reviews" gorm:"serializer:json"`
	Editions      []Edition          `json:"editions,omitempty" gorm:"serializer:json"`
	IsNew         bool               `json:"is_new"`
	Position      int64              `json:"-" gorm:"index"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// DiscountPercent returns round((original - price) / original * 100), or 0
// when there is no original price to compare against.
func DiscountPercent(original, price decimal.Decimal) int {
	if !original.IsPositive() {
		return 0
	}
	return int(original.Sub(price).Div(original).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// SetPrice updates the price and keeps Discount consistent with it.
func (c *CatalogItem) SetPrice(price decimal.Decimal) {
	c.Price = price
	c.Discount = DiscountPercent(c.OriginalPrice, price)
}

// EditionAt returns the edition at index, or the implicit "Standard"
// edition at the base price when the item has none.
func (c *CatalogItem) EditionAt(index int) (Edition, bool) {
	if len(c.Editions) == 0 {
		if index != 0 {
			return Edition{}, false
		}
		return Edition{Name: "Standard", Price: c.Price}, true
	}
	if index < 0 || index >= len(c.Editions) {
		return Edition{}, false
	}
	return c.Editions[index], true
}

type UpcomingRelease struct {
	ID          string    `json:"id" gorm:"primaryKey;size:80"`
	Title       string    `json:"title" gorm:"size:255"`
	ReleaseDate string    `json:"release_date" gorm:"size:40"`
	Image       string    `json:"image" gorm:"size:512"`
	Position    int64     `json:"-" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type StoreSettings struct {
	ID               uint      `json:"-" gorm:"primaryKey"`
	FlashSaleEnabled bool      `json:"flash_sale_enabled"`
	MaintenanceMode  bool      `json:"maintenance_mode"`
	BannerText       string    `json:"banner_text" gorm:"size:512"`
	BannerLink       string    `json:"banner_link" gorm:"size:512"`
	BannerImage      string    `json:"banner_image" gorm:"size:512"`
	UpdatedAt        time.Time `json:"updated_at"`
}
