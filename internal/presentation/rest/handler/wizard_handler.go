package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	purchaseapp "skillcoins/internal/application/purchase"
	"skillcoins/internal/domain/session"
)

// PurchaseService 購入ウィザードの操作
type PurchaseService interface {
	OpenWizard(ctx context.Context, req *purchaseapp.OpenWizardRequest) (*purchaseapp.WizardView, error)
	UpdateSelection(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, action session.Action) (*purchaseapp.WizardView, error)
	Confirm(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (*purchaseapp.Result, error)
	CloseWizard(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) error
	Back(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (session.Origin, error)
	GetSessionSnapshot(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (*purchaseapp.WizardView, error)
}

// WizardHandler 購入ウィザード関連ハンドラー
type WizardHandler struct {
	purchases PurchaseService
}

// NewWizardHandler 新しいWizardHandlerを作成
func NewWizardHandler(purchases PurchaseService) *WizardHandler {
	return &WizardHandler{purchases: purchases}
}

// Open ウィザードを開く
// @Summary ウィザードを開く
// @Description 同じ種類のウィザードが開いていれば置き換えます。resumeがtrueなら閉じた直後の選択を引き継ぎます
// @Tags wizards
// @Accept json
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param kind path string true "種類" Enums(catalog_buy, level_buy, spawner_tier_buy)
// @Param request body OpenWizardRequest false "開く対象"
// @Success 200 {object} WizardResponse "ウィザードの状態"
// @Failure 400 {object} middleware.ErrorResponse "不正なリクエスト"
// @Failure 404 {object} middleware.ErrorResponse "セクションが無い"
// @Router /players/{player_id}/wizards/{kind} [post]
func (h *WizardHandler) Open(c echo.Context) error {
	playerID, kind, err := wizardParams(c)
	if err != nil {
		return err
	}

	var reqBody OpenWizardRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	origin, err := session.NewOrigin(reqBody.Origin)
	if err != nil {
		return err
	}

	view, err := h.purchases.OpenWizard(c.Request().Context(), &purchaseapp.OpenWizardRequest{
		PlayerID: playerID,
		Kind:     kind,
		Target: session.Target{
			Skill:      reqBody.Skill,
			Level:      reqBody.Level,
			EntityType: reqBody.EntityType,
			SectionID:  reqBody.Section,
			Origin:     origin,
		},
		Resume: reqBody.Resume,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWizardResponse(view))
}

// Snapshot ウィザードの状態を取得
// @Summary ウィザードの状態を取得
// @Tags wizards
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param kind path string true "種類" Enums(catalog_buy, level_buy, spawner_tier_buy)
// @Success 200 {object} WizardResponse "ウィザードの状態"
// @Failure 404 {object} middleware.ErrorResponse "セッションが無い"
// @Router /players/{player_id}/wizards/{kind} [get]
func (h *WizardHandler) Snapshot(c echo.Context) error {
	playerID, kind, err := wizardParams(c)
	if err != nil {
		return err
	}

	view, err := h.purchases.GetSessionSnapshot(c.Request().Context(), playerID, kind)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWizardResponse(view))
}

// Act ウィザード内の操作
// @Summary ウィザード内の操作を適用
// @Tags wizards
// @Accept json
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param kind path string true "種類" Enums(catalog_buy, level_buy, spawner_tier_buy)
// @Param request body WizardActionRequest true "操作"
// @Success 200 {object} WizardResponse "操作後の状態"
// @Failure 400 {object} middleware.ErrorResponse "適用できない操作"
// @Failure 404 {object} middleware.ErrorResponse "セッションが無い"
// @Router /players/{player_id}/wizards/{kind}/actions [post]
func (h *WizardHandler) Act(c echo.Context) error {
	playerID, kind, err := wizardParams(c)
	if err != nil {
		return err
	}

	var reqBody WizardActionRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	action, err := session.NewAction(reqBody.Action, reqBody.Value)
	if err != nil {
		return err
	}

	view, err := h.purchases.UpdateSelection(c.Request().Context(), playerID, kind, action)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWizardResponse(view))
}

// Confirm 購入を確定
// @Summary 購入を確定
// @Description 成立しなかった購入もreasonを付けて200で返します
// @Tags wizards
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param kind path string true "種類" Enums(catalog_buy, level_buy, spawner_tier_buy)
// @Success 200 {object} PurchaseResultResponse "購入結果"
// @Failure 404 {object} middleware.ErrorResponse "セッションが無い"
// @Failure 503 {object} middleware.ErrorResponse "永続化エラー"
// @Router /players/{player_id}/wizards/{kind}/confirm [post]
func (h *WizardHandler) Confirm(c echo.Context) error {
	playerID, kind, err := wizardParams(c)
	if err != nil {
		return err
	}

	result, err := h.purchases.Confirm(c.Request().Context(), playerID, kind)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PurchaseResultResponse{
		Success:       result.Success,
		Reason:        string(result.Reason),
		Currency:      result.Currency.String(),
		Cost:          result.Cost,
		NewBalance:    result.NewBalance,
		GrantedEffect: result.GrantedEffect,
	})
}

// Back 戻る
// @Summary ウィザードを閉じて戻り先を取得
// @Tags wizards
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param kind path string true "種類" Enums(catalog_buy, level_buy, spawner_tier_buy)
// @Success 200 {object} BackResponse "戻り先"
// @Router /players/{player_id}/wizards/{kind}/back [post]
func (h *WizardHandler) Back(c echo.Context) error {
	playerID, kind, err := wizardParams(c)
	if err != nil {
		return err
	}

	origin, err := h.purchases.Back(c.Request().Context(), playerID, kind)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BackResponse{Origin: string(origin)})
}

// Close ウィザードを閉じる
// @Summary ウィザードを閉じる
// @Description セッションは猶予期間の後に破棄されます
// @Tags wizards
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param kind path string true "種類" Enums(catalog_buy, level_buy, spawner_tier_buy)
// @Success 204 "閉じた"
// @Router /players/{player_id}/wizards/{kind} [delete]
func (h *WizardHandler) Close(c echo.Context) error {
	playerID, kind, err := wizardParams(c)
	if err != nil {
		return err
	}

	if err := h.purchases.CloseWizard(c.Request().Context(), playerID, kind); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func wizardParams(c echo.Context) (uuid.UUID, session.WizardKind, error) {
	playerID, err := playerIDParam(c)
	if err != nil {
		return uuid.Nil, "", err
	}
	kind, err := wizardKindParam(c)
	if err != nil {
		return uuid.Nil, "", err
	}
	return playerID, kind, nil
}

func toWizardResponse(view *purchaseapp.WizardView) WizardResponse {
	resp := WizardResponse{
		PlayerID:    view.Session.PlayerID.String(),
		Kind:        view.Session.Kind.String(),
		Open:        view.Session.Open,
		Selection:   view.Session.Selection,
		Balance:     view.Balance,
		Affordable:  view.Affordable,
		Unavailable: string(view.Unavailable),
		UpdatedAt:   view.Session.UpdatedAt,
	}
	if view.Quote != nil {
		resp.Quote = &QuoteResponse{
			Currency:    view.Quote.Currency.String(),
			Cost:        view.Quote.Cost,
			Description: view.Quote.Description,
			Credit:      view.Quote.Credit,
		}
	}
	return resp
}
