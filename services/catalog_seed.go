package services

import (
	"fmt"

	"storefront/models"

	"github.com/shopspring/decimal"
)

// SteamCoverURL is the portrait cover art for a Steam app id.
func SteamCoverURL(appID string) string {
	return fmt.Sprintf("https://cdn.akamai.steamstatic.com/steam/apps/%s/library_600x900.jpg", appID)
}

var defaultSystemReq = models.SystemRequirements{
	OS:        "Windows 10/11",
	Processor: "Intel Core i5-8400",
	Memory:    "16GB",
	Graphics:  "GTX 1060 6GB",
	Storage:   "70GB",
}

func seedItem(id, appID, title string, platform models.Platform, genre string, price, original int64, rating float64, released string) models.CatalogItem {
	return models.CatalogItem{
		ID:            id,
		Title:         title,
		Price:         decimal.NewFromInt(price),
		OriginalPrice: decimal.NewFromInt(original),
		Rating:        rating,
		Image:         SteamCoverURL(appID),
		Platform:      platform,
		Genre:         genre,
		ReleaseDate:   released,
		Description:   title + " on Brahmastra Game Store. Instant digital delivery.",
		Players:       "Single-player",
		SystemReq:     defaultSystemReq,
	}
}

// DefaultCatalog is the catalog a fresh store starts with.
func DefaultCatalog() []models.CatalogItem {
	gta := seedItem("gta-v", "271590", "Grand Theft Auto V", models.Steam, "Action", 999, 2499, 4.8, "2015-04-14")
	gta.Players = "Single-player, Online"
	gta.Editions = []models.Edition{
		{Name: "Standard", Price: decimal.NewFromInt(999)},
		{Name: "Premium Edition", Price: decimal.NewFromInt(1499), Perks: []string{"Criminal Enterprise Starter Pack"}},
	}
	gta.Reviews = []models.Review{{User: "Rohit", Rating: 5, Comment: "Code mil gaya 10 min mein."}}

	cyberpunk := seedItem("cyberpunk-2077", "1091500", "Cyberpunk 2077", models.Steam, "RPG", 1499, 2999, 4.7, "2020-12-10")
	cyberpunk.Editions = []models.Edition{
		{Name: "Standard", Price: decimal.NewFromInt(1499)},
		{Name: "Ultimate Edition", Price: decimal.NewFromInt(2499), Perks: []string{"Phantom Liberty expansion"}},
	}

	return []models.CatalogItem{
		gta,
		cyberpunk,
		seedItem("elden-ring", "1245620", "Elden Ring", models.Steam, "RPG", 2499, 3599, 4.9, "2022-02-25"),
		seedItem("rdr2", "1174180", "Red Dead Redemption 2", models.Epic, "Action", 1299, 3199, 4.9, "2019-12-05"),
		seedItem("god-of-war", "1593500", "God of War", models.Steam, "Action", 1999, 3299, 4.9, "2022-01-14"),
		seedItem("forza-horizon-5", "1551360", "Forza Horizon 5", models.Xbox, "Racing", 1799, 3499, 4.7, "2021-11-09"),
		seedItem("spider-man-remastered", "1817070", "Marvel's Spider-Man Remastered", models.PS5, "Action", 2299, 3999, 4.8, "2022-08-12"),
		seedItem("ac-mirage", "2608970", "Assassin's Creed Mirage", models.Ubisoft, "Action", 1499, 2999, 4.5, "2023-10-05"),
		seedItem("diablo-iv", "2344520", "Diablo IV", models.BattleNet, "RPG", 2799, 4499, 4.4, "2023-06-06"),
		seedItem("hogwarts-legacy", "990080", "Hogwarts Legacy", models.Epic, "RPG", 1899, 3499, 4.6, "2023-02-10"),
		seedItem("baldurs-gate-3", "1086940", "Baldur's Gate 3", models.Steam, "RPG", 2199, 2999, 4.9, "2023-08-03"),
		seedItem("ea-fc-24", "2195250", "EA Sports FC 24", models.Steam, "Sports", 1999, 3999, 4.2, "2023-09-29"),
		seedItem("mw3", "2519060", "Call of Duty: Modern Warfare III", models.Steam, "Shooter", 3299, 4999, 4.3, "2023-11-10"),
		seedItem("stardew-valley", "413150", "Stardew Valley", models.Steam, "Simulation", 299, 299, 4.9, "2016-02-26"),
	}
}

func DefaultUpcoming() []models.UpcomingRelease {
	return []models.UpcomingRelease{
		{ID: "gta-vi", Title: "Grand Theft Auto VI", ReleaseDate: "2026", Image: "https://images.unsplash.com/photo-1538481199705-c710c4e965fc?q=80&w=1080&auto=format&fit=crop"},
		{ID: "wolverine", Title: "Marvel's Wolverine", ReleaseDate: "TBA", Image: "https://images.unsplash.com/photo-1542751371-adc38448a05e?q=80&w=1080&auto=format&fit=crop"},
	}
}
