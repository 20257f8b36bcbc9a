package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voice-order-service/internal/model"
)

func sampleItems() []model.CatalogItem {
	return []model.CatalogItem{
		{ID: "bread_whole_wheat", Name: "Whole Wheat Bread", Price: decimal.RequireFromString("3.00"), Unit: "loaf", Category: "Groceries", Tags: []string{"bakery"}},
		{ID: "peanut_butter", Name: "Peanut Butter", Price: decimal.RequireFromString("4.50"), Unit: "jar", Category: "Groceries", Tags: []string{"spread"}},
		{ID: "potato_chips", Name: "Sea Salt Potato Chips", Price: decimal.RequireFromString("2.99"), Unit: "bag", Category: "Snacks", Tags: []string{"salty"}},
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())

	assert.Equal(t, 0, c.Len())
	_, err := c.Lookup("bread")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestLoad_MalformedFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	c := Load(path, zap.NewNop())
	assert.Equal(t, 0, c.Len())
}

func TestLoad_ReadsItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `[{"id":"peanut_butter","name":"Peanut Butter","price":4.5,"unit":"jar","category":"Groceries","tags":["spread"]}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c := Load(path, zap.NewNop())
	require.Equal(t, 1, c.Len())

	it, ok := c.ByID("peanut_butter")
	require.True(t, ok)
	assert.True(t, it.Price.Equal(decimal.RequireFromString("4.50")))
	assert.Equal(t, []string{"spread"}, it.Tags)
}

func TestLookup(t *testing.T) {
	c := New(sampleItems())

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "by id", query: "PEANUT_BUTTER", want: "peanut_butter"},
		{name: "by full name", query: "whole wheat bread", want: "bread_whole_wheat"},
		{name: "by substring", query: "chips", want: "potato_chips"},
		{name: "trims spaces", query: "  Peanut Butter ", want: "peanut_butter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := c.Lookup(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, it.ID)
		})
	}
}

func TestLookup_NotFound(t *testing.T) {
	c := New(sampleItems())

	_, err := c.Lookup("caviar")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = c.Lookup("")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSearch_MatchesNameCategoryAndTags(t *testing.T) {
	c := New(sampleItems())

	assert.Len(t, c.Search("butter"), 1)
	assert.Len(t, c.Search("groceries"), 2)
	assert.Len(t, c.Search("salty"), 1)
	assert.Empty(t, c.Search("caviar"))
}

func TestByCategoryAndCategories(t *testing.T) {
	c := New(sampleItems())

	assert.Len(t, c.ByCategory("snacks"), 1)
	assert.Equal(t, []string{"Groceries", "Snacks"}, c.Categories())
}

func TestRecipe(t *testing.T) {
	ids, err := Recipe("Peanut Butter Sandwich")
	require.NoError(t, err)
	assert.Equal(t, []string{"bread_whole_wheat", "peanut_butter"}, ids)

	_, err = Recipe("beef wellington")
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}
