package shop

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog 読み込み済みのショップ設定
//
// 起動時に構築され、以後は読み取り専用。
type Catalog struct {
	sections []*Section
	byID     map[string]*Section
}

// NewCatalog 新しいCatalogを作成（セクションはスロット順に並べる）
func NewCatalog(sections []*Section) *Catalog {
	sorted := make([]*Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slot < sorted[j].Slot })

	byID := make(map[string]*Section, len(sorted))
	for _, s := range sorted {
		byID[strings.ToLower(s.ID)] = s
	}
	return &Catalog{sections: sorted, byID: byID}
}

// Sections 非表示でないセクションを返す
func (c *Catalog) Sections() []*Section {
	out := make([]*Section, 0, len(c.sections))
	for _, s := range c.sections {
		if !s.Hidden {
			out = append(out, s)
		}
	}
	return out
}

// Section IDでセクションを取得（大文字小文字は区別しない）
func (c *Catalog) Section(id string) (*Section, error) {
	s, ok := c.byID[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	return s, nil
}

// SpawnerItem エンティティとティアに一致するスポナー商品を返す
//
// 一致する商品が無い、または購入価格が無い場合はErrPriceNotConfiguredを返す。
func (c *Catalog) SpawnerItem(entityType string, tier SpawnerTier) (*Item, error) {
	for _, s := range c.sections {
		for _, item := range s.Items {
			if item.IsSpawner() && strings.EqualFold(item.SpawnerType, entityType) && item.SpawnerTier == tier {
				if !item.CanBuy() {
					return nil, fmt.Errorf("%w: %s %s", ErrPriceNotConfigured, entityType, tier)
				}
				return item, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ErrPriceNotConfigured, entityType, tier)
}

// HasSpawner エンティティのスポナーがいずれかのティアで登録されているか
func (c *Catalog) HasSpawner(entityType string) bool {
	for _, s := range c.sections {
		for _, item := range s.Items {
			if item.IsSpawner() && strings.EqualFold(item.SpawnerType, entityType) {
				return true
			}
		}
	}
	return false
}
