package shop

import "errors"

var (
	// ErrSectionNotFound セクションが見つからない
	ErrSectionNotFound = errors.New("shop section not found")
	// ErrItemNotFound 商品が見つからない
	ErrItemNotFound = errors.New("shop item not found")
	// ErrPriceNotConfigured 価格が設定されていない
	ErrPriceNotConfigured = errors.New("price not configured")
	// ErrInvalidSpawnerTier 無効なスポナーティア
	ErrInvalidSpawnerTier = errors.New("invalid spawner tier")
	// ErrInvalidItemType 無効な商品タイプ
	ErrInvalidItemType = errors.New("invalid item type")
	// ErrInventoryFull インベントリに空きがない
	ErrInventoryFull = errors.New("inventory full")
	// ErrNotEnoughItems 売却する数量を所持していない
	ErrNotEnoughItems = errors.New("not enough items")
)
