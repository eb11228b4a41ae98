package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	bridgeapp "skillcoins/internal/application/bridge"
)

// CommandBridge 外部経済コマンドの取り込み
type CommandBridge interface {
	OnForeignEconomyCommand(ctx context.Context, req *bridgeapp.CommandRequest) (*bridgeapp.CommandResponse, error)
}

// CommandHandler 外部コマンド関連ハンドラー
type CommandHandler struct {
	bridge CommandBridge
}

// NewCommandHandler 新しいCommandHandlerを作成
func NewCommandHandler(bridge CommandBridge) *CommandHandler {
	return &CommandHandler{bridge: bridge}
}

// ForwardCommand 外部経済コマンド転送ハンドラー
// @Summary 外部経済コマンドを転送
// @Description /money と /cmi money の set/give/take をコイン残高に反映します
// @Tags commands
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CommandRequest true "コマンド"
// @Success 200 {object} CommandResponse "処理結果"
// @Failure 503 {object} middleware.ErrorResponse "永続化エラー"
// @Router /commands/economy [post]
func (h *CommandHandler) ForwardCommand(c echo.Context) error {
	var reqBody CommandRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.bridge.OnForeignEconomyCommand(c.Request().Context(), &bridgeapp.CommandRequest{
		Command: reqBody.Command,
		Issuer:  reqBody.Issuer,
	})
	if err != nil {
		return err
	}

	out := CommandResponse{
		Handled:   resp.Handled,
		Operation: string(resp.Operation),
	}
	if resp.PlayerID != uuid.Nil {
		out.PlayerID = resp.PlayerID.String()
		balance := resp.NewBalance
		out.NewBalance = &balance
	}
	return c.JSON(http.StatusOK, out)
}
