package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
)

// BalanceLedger 残高の読み書き
type BalanceLedger interface {
	Balances(ctx context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error)
	SetBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) (decimal.Decimal, error)
}

// CurrencyHandler 通貨関連ハンドラー
type CurrencyHandler struct {
	ledger BalanceLedger
}

// NewCurrencyHandler 新しいCurrencyHandlerを作成
func NewCurrencyHandler(ledger BalanceLedger) *CurrencyHandler {
	return &CurrencyHandler{
		ledger: ledger,
	}
}

// GetBalance 残高取得ハンドラー
// @Summary 残高を取得
// @Description プレイヤーのコインとトークンの残高を取得します
// @Tags currency
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Success 200 {object} BalanceResponse "残高取得成功"
// @Failure 400 {object} middleware.ErrorResponse "不正なリクエスト"
// @Failure 401 {object} middleware.ErrorResponse "認証エラー"
// @Failure 503 {object} middleware.ErrorResponse "永続化エラー"
// @Router /players/{player_id}/balance [get]
func (h *CurrencyHandler) GetBalance(c echo.Context) error {
	playerID, err := playerIDParam(c)
	if err != nil {
		return err
	}
	return h.writeBalances(c, playerID)
}

// GetBalanceAdmin 残高取得ハンドラー（管理API用）
// @Summary 残高を取得（管理API）
// @Tags admin
// @Produce json
// @Param player_id path string true "プレイヤーID"
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} BalanceResponse "残高取得成功"
// @Failure 401 {object} middleware.ErrorResponse "認証エラー"
// @Router /admin/players/{player_id}/balance [get]
func (h *CurrencyHandler) GetBalanceAdmin(c echo.Context) error {
	playerID, err := playerIDParam(c)
	if err != nil {
		return err
	}
	return h.writeBalances(c, playerID)
}

// SetBalanceAdmin 残高設定ハンドラー（管理API用）
// @Summary 残高を設定（管理API）
// @Description 指定した通貨の残高を上書きします。負の値は0になります
// @Tags admin
// @Accept json
// @Produce json
// @Param player_id path string true "プレイヤーID"
// @Param currency path string true "通貨" Enums(coins, tokens)
// @Param X-API-Key header string true "APIキー"
// @Param request body SetBalanceRequest true "残高設定リクエスト"
// @Success 200 {object} SetBalanceResponse "設定成功"
// @Failure 400 {object} middleware.ErrorResponse "不正なリクエスト"
// @Failure 401 {object} middleware.ErrorResponse "認証エラー"
// @Failure 503 {object} middleware.ErrorResponse "永続化エラー"
// @Router /admin/players/{player_id}/balance/{currency} [put]
func (h *CurrencyHandler) SetBalanceAdmin(c echo.Context) error {
	playerID, err := playerIDParam(c)
	if err != nil {
		return err
	}

	currencyType, err := currency.NewCurrencyType(c.Param("currency"))
	if err != nil {
		return err
	}

	var reqBody SetBalanceRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := decimal.NewFromString(reqBody.Amount)
	if err != nil {
		return fmt.Errorf("%w: %q", currency.ErrInvalidAmount, reqBody.Amount)
	}

	newBalance, err := h.ledger.SetBalance(c.Request().Context(), playerID, currencyType, amount)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SetBalanceResponse{
		PlayerID:   playerID.String(),
		Currency:   currencyType.String(),
		NewBalance: newBalance,
	})
}

func (h *CurrencyHandler) writeBalances(c echo.Context, playerID uuid.UUID) error {
	balances, err := h.ledger.Balances(c.Request().Context(), playerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		PlayerID: playerID.String(),
		Coins:    balances[currency.CurrencyTypeCoins],
		Tokens:   balances[currency.CurrencyTypeTokens],
	})
}
