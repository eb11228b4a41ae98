package session

import (
	"fmt"
	"strconv"
	"strings"
)

// TradeMode カタログ取引の方向
type TradeMode string

const (
	TradeModeBuy  TradeMode = "buy"
	TradeModeSell TradeMode = "sell"
)

// Selection ウィザード内の選択状態
//
// Kindによって使われるフィールドが異なる。
//   - level_buy: Skill, CurrentLevel, MaxLevel, UpToLevel, Page
//   - spawner_tier_buy: EntityType, Tier
//   - catalog_buy: SectionID, Page, ItemIndex, Mode, Quantity
type Selection struct {
	Kind WizardKind `json:"kind"`
	Page int        `json:"page"`

	Skill        string `json:"skill,omitempty"`
	CurrentLevel int    `json:"current_level,omitempty"`
	MaxLevel     int    `json:"max_level,omitempty"`
	UpToLevel    int    `json:"up_to_level,omitempty"`

	EntityType string `json:"entity_type,omitempty"`
	Tier       string `json:"tier,omitempty"`

	SectionID string    `json:"section_id,omitempty"`
	ItemIndex int       `json:"item_index"`
	Mode      TradeMode `json:"mode,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
}

// Target ウィザードを開くときの対象
type Target struct {
	Skill      string
	Level      int
	EntityType string
	SectionID  string
	Origin     Origin
}

// ActionType ウィザード内の操作
type ActionType string

const (
	ActionNextPage     ActionType = "next_page"
	ActionPreviousPage ActionType = "previous_page"
	ActionIncrement    ActionType = "increment"
	ActionDecrement    ActionType = "decrement"
	ActionSelectLevel  ActionType = "select_level"
	ActionSelectTier   ActionType = "select_tier"
	ActionSelectItem   ActionType = "select_item"
	ActionSetQuantity  ActionType = "set_quantity"
	ActionSetMode      ActionType = "set_mode"
)

// Action ウィザード内の1回の操作
type Action struct {
	Type  ActionType
	Value string
}

// NewAction 文字列から操作を作成
func NewAction(actionType, value string) (Action, error) {
	t := ActionType(strings.ToLower(strings.TrimSpace(actionType)))
	switch t {
	case ActionNextPage, ActionPreviousPage, ActionIncrement, ActionDecrement,
		ActionSelectLevel, ActionSelectTier, ActionSelectItem, ActionSetQuantity, ActionSetMode:
		return Action{Type: t, Value: strings.TrimSpace(value)}, nil
	default:
		return Action{}, fmt.Errorf("%w: %s", ErrInvalidAction, actionType)
	}
}

// IntValue 値を整数として返す
func (a Action) IntValue() (int, error) {
	n, err := strconv.Atoi(a.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s requires an integer value", ErrInvalidAction, a.Type)
	}
	return n, nil
}
