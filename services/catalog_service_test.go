package services

import (
	"context"
	"errors"
	"testing"

	"storefront/models"
	"storefront/random"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *CatalogService {
	db := setupTestDB(t)
	catalog := NewCatalogService(db, random.New(7), 12, testLogger())
	seedTestCatalog(t, catalog)
	return catalog
}

func TestCatalogList(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	t.Run("featured order and paging", func(t *testing.T) {
		page, err := catalog.List(ctx, CatalogQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(14), page.Total)
		assert.Len(t, page.Items, 12)
		assert.Equal(t, 2, page.Pages)
		assert.Equal(t, "gta-v", page.Items[0].ID)

		second, err := catalog.List(ctx, CatalogQuery{Page: 2})
		require.NoError(t, err)
		assert.Len(t, second.Items, 2)
		assert.Equal(t, "stardew-valley", second.Items[1].ID)
	})

	tests := []struct {
		name  string
		query CatalogQuery
		want  int64
	}{
		{"search is case insensitive", CatalogQuery{Search: "OF"}, 2},
		{"best selling", CatalogQuery{Quick: QuickBestSelling}, 7},
		{"offers", CatalogQuery{Quick: QuickOffers}, 13},
		{"quick platform", CatalogQuery{Quick: "epic"}, 2},
		{"platform", CatalogQuery{Platform: "PS5"}, 1},
		{"genre", CatalogQuery{Genre: "RPG"}, 5},
		{"all genres", CatalogQuery{Genre: "All"}, 14},
		{"combined", CatalogQuery{Genre: "Action", Platform: "Steam"}, 2},
		{"wildcards are literal", CatalogQuery{Search: "%"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := catalog.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Total)
		})
	}

	t.Run("sorting", func(t *testing.T) {
		low, err := catalog.List(ctx, CatalogQuery{Sort: SortPriceLow})
		require.NoError(t, err)
		assert.Equal(t, "stardew-valley", low.Items[0].ID)

		high, err := catalog.List(ctx, CatalogQuery{Sort: SortPriceHigh})
		require.NoError(t, err)
		assert.Equal(t, "mw3", high.Items[0].ID)

		rated, err := catalog.List(ctx, CatalogQuery{Sort: SortRating})
		require.NoError(t, err)
		assert.Equal(t, 4.9, rated.Items[0].Rating)
	})

	t.Run("unknown filters are rejected", func(t *testing.T) {
		_, err := catalog.List(ctx, CatalogQuery{Sort: "newest"})
		var fields FieldErrors
		assert.True(t, errors.As(err, &fields))
		_, err = catalog.List(ctx, CatalogQuery{Platform: "Dreamcast"})
		assert.True(t, errors.As(err, &fields))
	})
}

func TestCatalogGenresAndSimilar(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	genres, err := catalog.Genres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Action", "RPG", "Racing", "Shooter", "Simulation", "Sports"}, genres)

	similar, err := catalog.Similar(ctx, "elden-ring", 3)
	require.NoError(t, err)
	assert.Len(t, similar, 3)
	for _, item := range similar {
		assert.Equal(t, "RPG", item.Genre)
		assert.NotEqual(t, "elden-ring", item.ID)
	}

	_, err = catalog.Similar(ctx, "missing", 3)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCatalogSeedDiscounts(t *testing.T) {
	catalog := newTestCatalog(t)
	gta := mustItem(t, catalog, "gta-v")
	assert.Equal(t, 60, gta.Discount)
	require.Len(t, gta.Editions, 2)
	assert.Equal(t, "Premium Edition", gta.Editions[1].Name)
	assert.Equal(t, "Windows 10/11", gta.SystemReq.OS)
}

func TestCatalogCreatePrepends(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	item := &models.CatalogItem{Title: "Hollow Knight", Price: d(400), OriginalPrice: d(500), Platform: "steam"}
	require.NoError(t, catalog.Create(ctx, item))
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, models.Steam, item.Platform)
	assert.Equal(t, 20, item.Discount)
	assert.Equal(t, "Action", item.Genre)

	page, err := catalog.List(ctx, CatalogQuery{})
	require.NoError(t, err)
	assert.Equal(t, item.ID, page.Items[0].ID)

	t.Run("defaults", func(t *testing.T) {
		bare := &models.CatalogItem{Title: "Mystery"}
		require.NoError(t, catalog.Create(ctx, bare))
		assert.True(t, bare.Price.Equal(d(999)))
		assert.True(t, bare.OriginalPrice.Equal(d(1498)))
		assert.Equal(t, 33, bare.Discount)
	})

	t.Run("validation", func(t *testing.T) {
		err := catalog.Create(ctx, &models.CatalogItem{Title: " ", Platform: "Dreamcast", Price: d(-1)})
		var fields FieldErrors
		require.True(t, errors.As(err, &fields))
		assert.Contains(t, fields, "title")
		assert.Contains(t, fields, "platform")
		assert.Contains(t, fields, "price")
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := catalog.Create(ctx, &models.CatalogItem{ID: "gta-v", Title: "Again"})
		assert.ErrorIs(t, err, ErrDuplicateItem)
	})
}

func TestCatalogPatch(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	updated, err := catalog.Patch(ctx, "elden-ring", []byte(`{"price": 1799, "id": "hijack", "description": null, "is_new": true}`))
	require.NoError(t, err)
	assert.Equal(t, "elden-ring", updated.ID)
	assert.True(t, updated.Price.Equal(d(1799)))
	assert.Equal(t, 50, updated.Discount)
	assert.Empty(t, updated.Description)
	assert.True(t, updated.IsNew)

	stored := mustItem(t, catalog, "elden-ring")
	assert.True(t, stored.Price.Equal(d(1799)))
	assert.Equal(t, "Elden Ring", stored.Title)

	_, err = catalog.Patch(ctx, "missing", []byte(`{}`))
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = catalog.Patch(ctx, "elden-ring", []byte(`{"platform": "Dreamcast"}`))
	var fields FieldErrors
	assert.True(t, errors.As(err, &fields))

	_, err = catalog.Patch(ctx, "elden-ring", []byte(`not json`))
	assert.Error(t, err)
}

func TestCatalogDelete(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, catalog.Delete(ctx, "mw3"))
	assert.ErrorIs(t, catalog.Delete(ctx, "mw3"), ErrItemNotFound)
	_, err := catalog.Get(ctx, "mw3")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdatePriceByTitle(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	matched, err := catalog.UpdatePriceByTitle(ctx, "grand theft", d(500))
	require.NoError(t, err)
	require.Len(t, matched, 1)
	// round((2499 - 500) / 2499 * 100) = 80
	assert.Equal(t, 80, matched[0].Discount)
	assert.True(t, mustItem(t, catalog, "gta-v").Price.Equal(d(500)))

	t.Run("all matches updated", func(t *testing.T) {
		matched, err := catalog.UpdatePriceByTitle(ctx, "e", d(1000))
		require.NoError(t, err)
		assert.Greater(t, len(matched), 1)
		for _, item := range matched {
			assert.True(t, mustItem(t, catalog, item.ID).Price.Equal(d(1000)))
		}
	})

	t.Run("no match leaves catalog unchanged", func(t *testing.T) {
		_, err := catalog.UpdatePriceByTitle(ctx, "zelda", d(1))
		assert.ErrorIs(t, err, ErrNoCatalogMatch)
	})
}
