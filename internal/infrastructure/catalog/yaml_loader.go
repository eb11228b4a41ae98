// Package catalog はショップ設定をYAMLから読み込む。
//
// ディレクトリ構成:
//
//	<dir>/sections/<SectionID>.yml  セクションの表示設定
//	<dir>/shops/<SectionID>.yml     セクションに並ぶ商品（pages.<page>.items.<key>）
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/shop"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

type sectionFile struct {
	Enable      *bool  `yaml:"enable"`
	Slot        int    `yaml:"slot"`
	Material    string `yaml:"material"`
	DisplayName string `yaml:"displayname"`
	Item        struct {
		Material    string `yaml:"material"`
		DisplayName string `yaml:"displayname"`
	} `yaml:"item"`
	Title  string `yaml:"title"`
	Hidden bool   `yaml:"hidden"`
}

type shopFile struct {
	Pages yaml.Node `yaml:"pages"`
}

type pageFile struct {
	Items yaml.Node `yaml:"items"`
}

type itemFile struct {
	Material     string   `yaml:"material"`
	Buy          *price   `yaml:"buy"`
	Sell         *price   `yaml:"sell"`
	Currency     string   `yaml:"currency"`
	Skill        string   `yaml:"skill"`
	Tokens       *int64   `yaml:"tokens"`
	Enchantments []string `yaml:"enchantments"`
	SpawnerType  string   `yaml:"spawnertype"`
	SpawnerTier  string   `yaml:"spawnertier"`
	PackSize     *int     `yaml:"packsize"`
}

// price YAMLの数値をfloatを経由せずにdecimalとして読む
type price struct {
	decimal.Decimal
}

// UnmarshalYAML yaml.Unmarshalerの実装
func (p *price) UnmarshalYAML(node *yaml.Node) error {
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q", node.Line, node.Value)
	}
	if err := currency.ValidateScale(d); err != nil {
		return fmt.Errorf("line %d: price %q has more than %d decimal places", node.Line, node.Value, currency.Scale)
	}
	p.Decimal = d
	return nil
}

// YAMLLoader YAMLファイルからカタログを構築する
type YAMLLoader struct {
	dir    string
	logger *otelinfra.Logger
}

// NewYAMLLoader 新しいYAMLLoaderを作成
func NewYAMLLoader(dir string, logger *otelinfra.Logger) *YAMLLoader {
	return &YAMLLoader{dir: dir, logger: logger}
}

// Load 全セクションを読み込む
//
// 不正な商品は警告を出して読み飛ばす。セクションファイル自体が壊れている場合はエラーを返す。
func (l *YAMLLoader) Load(ctx context.Context) (*shop.Catalog, error) {
	sectionsDir := filepath.Join(l.dir, "sections")
	entries, err := os.ReadDir(sectionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sections directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sections []*shop.Section
	itemCount := 0
	for _, name := range names {
		section, err := l.loadSection(ctx, filepath.Join(sectionsDir, name))
		if err != nil {
			return nil, err
		}
		if section == nil {
			continue
		}
		itemCount += len(section.Items)
		sections = append(sections, section)
	}

	l.logger.Info(ctx, "Shop catalog loaded", map[string]interface{}{
		"dir":      l.dir,
		"sections": len(sections),
		"items":    itemCount,
	})

	return shop.NewCatalog(sections), nil
}

func (l *YAMLLoader) loadSection(ctx context.Context, path string) (*shop.Section, error) {
	var sf sectionFile
	if err := decodeFile(path, &sf); err != nil {
		return nil, err
	}
	if sf.Enable != nil && !*sf.Enable {
		return nil, nil
	}

	id := strings.TrimSuffix(filepath.Base(path), ".yml")
	section := &shop.Section{
		ID:          id,
		DisplayName: firstNonEmpty(sf.Item.DisplayName, sf.DisplayName, id),
		Icon:        firstNonEmpty(sf.Item.Material, sf.Material, "STONE"),
		Slot:        sf.Slot - 1,
		Title:       sf.Title,
		Hidden:      sf.Hidden,
	}

	shopPath := filepath.Join(l.dir, "shops", id+".yml")
	if _, err := os.Stat(shopPath); os.IsNotExist(err) {
		l.logger.Warn(ctx, "Shop file not found for section", map[string]interface{}{"section": id})
		return section, nil
	}

	var shf shopFile
	if err := decodeFile(shopPath, &shf); err != nil {
		return nil, err
	}

	for _, page := range mappingPairs(&shf.Pages) {
		var pf pageFile
		if err := page.value.Decode(&pf); err != nil {
			l.logger.Warn(ctx, "Invalid shop page", map[string]interface{}{"section": id, "page": page.key, "error": err.Error()})
			continue
		}
		for _, entry := range mappingPairs(&pf.Items) {
			itemID := fmt.Sprintf("%s/%s/%s", id, page.key, entry.key)
			var itf itemFile
			if err := entry.value.Decode(&itf); err != nil {
				l.logger.Warn(ctx, "Invalid shop item", map[string]interface{}{"item": itemID, "error": err.Error()})
				continue
			}
			item, err := toItem(itemID, &itf)
			if err != nil {
				l.logger.Warn(ctx, "Skipping shop item", map[string]interface{}{"item": itemID, "error": err.Error()})
				continue
			}
			section.Items = append(section.Items, item)
		}
	}

	return section, nil
}

func toItem(id string, f *itemFile) (*shop.Item, error) {
	if f.Material == "" {
		return nil, fmt.Errorf("material is required")
	}

	item := &shop.Item{
		ID:           id,
		Material:     strings.ToUpper(f.Material),
		BuyPrice:     decimal.NewFromInt(-1),
		SellPrice:    decimal.NewFromInt(-1),
		Enchantments: map[string]int{},
		Type:         shop.ItemTypeRegular,
		Currency:     currency.CurrencyTypeCoins,
		SpawnerTier:  shop.SpawnerTierBasic,
		PackSize:     1,
	}
	if f.Buy != nil {
		item.BuyPrice = f.Buy.Decimal
	}
	if f.Sell != nil {
		item.SellPrice = f.Sell.Decimal
	}
	if strings.EqualFold(f.Currency, "tokens") {
		item.Currency = currency.CurrencyTypeTokens
	}

	switch {
	case f.Skill != "":
		item.Type = shop.ItemTypeSkillLevel
		item.Skill = f.Skill
	case f.Tokens != nil:
		item.Type = shop.ItemTypeTokenExchange
		item.TokenAmount = *f.Tokens
		if item.TokenAmount <= 0 {
			return nil, fmt.Errorf("tokens must be positive")
		}
		if f.Buy == nil {
			item.BuyPrice = decimal.NewFromInt(item.TokenAmount * shop.TokenExchangeRate)
		}
	}

	for _, raw := range f.Enchantments {
		name, levelStr, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("invalid enchantment %q", raw)
		}
		level, err := strconv.Atoi(strings.TrimSpace(levelStr))
		if err != nil {
			return nil, fmt.Errorf("invalid enchantment level %q", raw)
		}
		item.Enchantments[strings.ToLower(strings.TrimSpace(name))] = level
	}

	if f.SpawnerType != "" {
		item.Type = shop.ItemTypeSpawner
		item.SpawnerType = strings.ToUpper(f.SpawnerType)
	}
	if f.SpawnerTier != "" {
		tier, err := shop.NewSpawnerTier(f.SpawnerTier)
		if err != nil {
			return nil, err
		}
		item.SpawnerTier = tier
	}
	if f.PackSize != nil {
		if *f.PackSize <= 0 {
			return nil, fmt.Errorf("packsize must be positive")
		}
		item.PackSize = *f.PackSize
	}

	return item, nil
}

type nodePair struct {
	key   string
	value *yaml.Node
}

// mappingPairs マッピングノードのキーと値をファイル上の順序で返す
func mappingPairs(n *yaml.Node) []nodePair {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]nodePair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, nodePair{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return pairs
}

func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
