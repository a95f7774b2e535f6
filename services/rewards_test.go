package services

import (
	"testing"
	"time"

	"storefront/models"
	"storefront/random"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestResolveSegment(t *testing.T) {
	tests := []struct {
		rotation float64
		want     int
	}{
		{0, 0},
		{360 * 5, 0},
		{1, 7},   // 359 -> last segment
		{44, 7},  // 316
		{45, 7},  // 315 is the first degree of segment 7
		{46, 6},  // 314
		{180, 4}, // 180
		{315, 1}, // 45
		{359.5, 0},
		{-10, 0}, // 10
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveSegment(tt.rotation, 8), "rotation %v", tt.rotation)
	}
	assert.Equal(t, 0, ResolveSegment(123, 0))
}

func TestResolveSegmentProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("index within range", prop.ForAll(
		func(rotation float64, n int) bool {
			idx := ResolveSegment(rotation, n)
			return idx >= 0 && idx < n
		},
		gen.Float64Range(0, 1e6),
		gen.IntRange(1, 24),
	))

	properties.Property("whole turns do not change the result", prop.ForAll(
		func(rotation float64, turns int) bool {
			return ResolveSegment(rotation, 8) == ResolveSegment(rotation+float64(turns)*360, 8)
		},
		gen.Float64Range(0, 360),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestNextRotation(t *testing.T) {
	src := random.NewSequence(90)
	next := NextRotation(100, 5, src)
	assert.Equal(t, 100+5*360+90.0, next)

	seeded := random.New(3)
	for range 100 {
		r := NextRotation(0, 5, seeded)
		assert.GreaterOrEqual(t, r, 1800.0)
		assert.Less(t, r, 2160.0)
	}
}

func TestLootDateAndDraw(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-19", LootDate(late, kolkata))
	assert.Equal(t, "2026-10-18", LootDate(late, time.UTC))

	rewards := models.DefaultLootRewards()
	assert.Equal(t, "LOOT5", DrawLoot(rewards, random.NewSequence(1)).CouponCode)
	assert.Empty(t, DrawLoot(rewards, random.NewSequence(3)).CouponCode)
	assert.Equal(t, "Better Luck Next Time", DrawLoot(nil, random.NewSequence(0)).Label)
}
