package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	playerapp "skillcoins/internal/application/player"
	"skillcoins/internal/domain/currency"
)

// PlayerLifecycle プレイヤーの参加と退出
type PlayerLifecycle interface {
	Join(ctx context.Context, req *playerapp.JoinRequest) (*playerapp.JoinResponse, error)
	Quit(ctx context.Context, playerID uuid.UUID) error
}

// PlayerHandler プレイヤー関連ハンドラー
type PlayerHandler struct {
	players PlayerLifecycle
}

// NewPlayerHandler 新しいPlayerHandlerを作成
func NewPlayerHandler(players PlayerLifecycle) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// Join 参加通知ハンドラー
// @Summary プレイヤーの参加を通知
// @Description 名前とIDの対応を記録し、残高を読み込みます
// @Tags players
// @Accept json
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param request body JoinRequest true "参加通知"
// @Success 200 {object} BalanceResponse "参加成功"
// @Failure 400 {object} middleware.ErrorResponse "不正なリクエスト"
// @Failure 503 {object} middleware.ErrorResponse "永続化エラー"
// @Router /players/{player_id}/join [post]
func (h *PlayerHandler) Join(c echo.Context) error {
	playerID, err := playerIDParam(c)
	if err != nil {
		return err
	}

	var reqBody JoinRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.players.Join(c.Request().Context(), &playerapp.JoinRequest{
		PlayerID: playerID,
		Name:     reqBody.Name,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		PlayerID: resp.PlayerID.String(),
		Coins:    resp.Balances[currency.CurrencyTypeCoins],
		Tokens:   resp.Balances[currency.CurrencyTypeTokens],
	})
}

// Quit 退出通知ハンドラー
// @Summary プレイヤーの退出を通知
// @Description 残高を書き出してキャッシュとセッションを破棄します
// @Tags players
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Success 204 "退出処理完了"
// @Failure 503 {object} middleware.ErrorResponse "永続化エラー"
// @Router /players/{player_id}/quit [post]
func (h *PlayerHandler) Quit(c echo.Context) error {
	playerID, err := playerIDParam(c)
	if err != nil {
		return err
	}

	if err := h.players.Quit(c.Request().Context(), playerID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
