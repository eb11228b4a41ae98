package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	purchaseapp "skillcoins/internal/application/purchase"
	"skillcoins/internal/domain/shop"
)

// ShopCatalog ショップのメイン画面に並べるセクション
type ShopCatalog interface {
	Sections() []*shop.Section
}

// ShopHandler ショップ関連ハンドラー
type ShopHandler struct {
	catalog ShopCatalog
}

// NewShopHandler 新しいShopHandlerを作成
func NewShopHandler(catalog ShopCatalog) *ShopHandler {
	return &ShopHandler{catalog: catalog}
}

// ListSections ショップのセクション一覧
// @Summary ショップのセクション一覧
// @Description 非表示のセクションを除き、スロット順に返します
// @Tags shop
// @Produce json
// @Security Bearer
// @Success 200 {object} SectionListResponse "セクション一覧"
// @Router /shop/sections [get]
func (h *ShopHandler) ListSections(c echo.Context) error {
	sections := h.catalog.Sections()
	resp := SectionListResponse{Sections: make([]SectionResponse, 0, len(sections))}
	for _, s := range sections {
		resp.Sections = append(resp.Sections, SectionResponse{
			ID:          s.ID,
			DisplayName: s.DisplayName,
			Icon:        s.Icon,
			Slot:        s.Slot,
			Title:       s.Title,
			ItemCount:   len(s.Items),
			Pages:       s.PageCount(purchaseapp.ItemsPerPage),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
