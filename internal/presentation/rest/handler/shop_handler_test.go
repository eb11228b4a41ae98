package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillcoins/internal/domain/shop"
)

func TestShopHandler_ListSections(t *testing.T) {
	blocks := &shop.Section{ID: "blocks", DisplayName: "Blocks", Icon: "GRASS_BLOCK", Slot: 10, Title: "Building Blocks"}
	for i := 0; i < 46; i++ {
		blocks.Items = append(blocks.Items, &shop.Item{Material: "STONE"})
	}
	catalog := shop.NewCatalog([]*shop.Section{
		{ID: "spawners", DisplayName: "Spawners", Icon: "SPAWNER", Slot: 12},
		{ID: "tokens", DisplayName: "Tokens", Icon: "SUNFLOWER", Slot: 11, Hidden: true},
		blocks,
	})
	h := NewShopHandler(catalog)

	rec := serve(t, http.MethodGet, "/shop/sections", "/shop/sections", "", h.ListSections)

	require.Equal(t, http.StatusOK, rec.Code)
	sections, ok := decode(t, rec)["sections"].([]interface{})
	require.True(t, ok)
	require.Len(t, sections, 2, "非表示のセクションは返さない")

	first := sections[0].(map[string]interface{})
	assert.Equal(t, "blocks", first["id"])
	assert.Equal(t, "Building Blocks", first["title"])
	assert.Equal(t, float64(46), first["item_count"])
	assert.Equal(t, float64(2), first["pages"])

	second := sections[1].(map[string]interface{})
	assert.Equal(t, "spawners", second["id"])
	assert.Equal(t, float64(0), second["item_count"])
	assert.Equal(t, float64(1), second["pages"])
	assert.NotContains(t, second, "title")
}

func TestShopHandler_ListSections_Empty(t *testing.T) {
	h := NewShopHandler(shop.NewCatalog(nil))

	rec := serve(t, http.MethodGet, "/shop/sections", "/shop/sections", "", h.ListSections)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sections":[]}`, rec.Body.String())
}
