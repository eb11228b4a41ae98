package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/session"
)

// OpenWizardRequest ウィザードを開くリクエスト
// @Description 種類に応じて使う項目が異なる
type OpenWizardRequest struct {
	Skill      string `json:"skill,omitempty" example:"mining"`
	Level      int    `json:"level,omitempty" example:"12"`
	Section    string `json:"section,omitempty" example:"blocks"`
	EntityType string `json:"entity_type,omitempty" example:"ZOMBIE"`
	Origin     string `json:"origin,omitempty" example:"skill_road" enums:"shop_main,skill_select,skill_road"`
	Resume     bool   `json:"resume,omitempty"`
}

// WizardActionRequest ウィザード内の操作
// @Description ウィザード内の操作
type WizardActionRequest struct {
	Action string `json:"action" example:"select_level" enums:"next_page,previous_page,increment,decrement,select_level,select_tier,select_item,set_quantity,set_mode"`
	Value  string `json:"value,omitempty" example:"12"`
}

// QuoteResponse 見積もり
// @Description 見積もり
type QuoteResponse struct {
	Currency    string          `json:"currency" example:"tokens"`
	Cost        decimal.Decimal `json:"cost" swaggertype:"string" example:"30"`
	Description string          `json:"description" example:"mining 9 -> 12"`
	Credit      bool            `json:"credit"`
}

// WizardResponse ウィザードの状態
// @Description ウィザードの状態
type WizardResponse struct {
	PlayerID    string            `json:"player_id"`
	Kind        string            `json:"kind" example:"level_buy"`
	Open        bool              `json:"open"`
	Selection   session.Selection `json:"selection"`
	Quote       *QuoteResponse    `json:"quote,omitempty"`
	Balance     decimal.Decimal   `json:"balance" swaggertype:"string" example:"25"`
	Affordable  bool              `json:"affordable"`
	Unavailable string            `json:"unavailable,omitempty" example:"at_max_already"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// PurchaseResultResponse 購入結果
// @Description 購入結果
type PurchaseResultResponse struct {
	Success       bool            `json:"success"`
	Reason        string          `json:"reason,omitempty" example:"insufficient_funds" enums:"insufficient_funds,invalid_target,at_max_already,configuration_missing,inventory_full,insufficient_items"`
	Currency      string          `json:"currency" example:"tokens"`
	Cost          decimal.Decimal `json:"cost" swaggertype:"string" example:"30"`
	NewBalance    decimal.Decimal `json:"new_balance" swaggertype:"string" example:"0"`
	GrantedEffect string          `json:"granted_effect,omitempty" example:"mining 9 -> 12"`
}

// BackResponse 戻り先
// @Description 戻り先
type BackResponse struct {
	Origin string `json:"origin" example:"skill_road"`
}
