package services

import (
	"math"
	"time"

	"storefront/models"
	"storefront/random"

	"github.com/shopspring/decimal"
)

// ResolveSegment maps a final wheel rotation in degrees to one of n equal
// segments. The pointer is fixed and the wheel turns under it, so the
// angle is read opposite the direction of rotation.
func ResolveSegment(finalRotation float64, n int) int {
	if n <= 0 {
		return 0
	}
	turn := math.Mod(finalRotation, 360)
	if turn < 0 {
		turn += 360
	}
	normalized := math.Mod(360-turn, 360)
	index := int(math.Floor(normalized/(360/float64(n)))) % n
	return index
}

// NextRotation adds fullTurns whole turns plus a random whole-degree
// offset in [0, 360) to current.
func NextRotation(current float64, fullTurns int, src random.Source) float64 {
	return current + float64(fullTurns)*360 + float64(src.IntN(360))
}

type SpinResult struct {
	Rotation float64             `json:"rotation"`
	Resolved bool                `json:"resolved"`
	Segment  int                 `json:"segment"`
	Prize    models.PrizeSegment `json:"prize"`
	Won      bool                `json:"won"`
	Message  string              `json:"message"`
	Balance  decimal.Decimal     `json:"balance"`
}

type LootResult struct {
	Date    string            `json:"date"`
	Reward  models.LootReward `json:"reward"`
	Balance decimal.Decimal   `json:"balance"`
}

// LootDate is the daily-loot key: the calendar date in loc.
func LootDate(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(time.DateOnly)
}

// DrawLoot picks one reward uniformly.
func DrawLoot(rewards []models.LootReward, src random.Source) models.LootReward {
	if len(rewards) == 0 {
		return models.LootReward{Label: "Better Luck Next Time"}
	}
	return rewards[src.IntN(len(rewards))]
}
