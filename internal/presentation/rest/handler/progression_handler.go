package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	rewardapp "skillcoins/internal/application/reward"
	"skillcoins/internal/domain/reward"
	"skillcoins/internal/domain/skill"
)

// RewardService レベルアップ報酬
type RewardService interface {
	OnProgressionEvent(ctx context.Context, req *rewardapp.ProgressionRequest) (*rewardapp.ProgressionResponse, error)
	TakeRecentReward(ctx context.Context, playerID uuid.UUID, skillName string, level int) (*reward.RecentReward, error)
}

// ProgressionHandler スキル進行関連ハンドラー
type ProgressionHandler struct {
	rewards RewardService
}

// NewProgressionHandler 新しいProgressionHandlerを作成
func NewProgressionHandler(rewards RewardService) *ProgressionHandler {
	return &ProgressionHandler{rewards: rewards}
}

// ReportProgression レベルアップ通知ハンドラー
// @Summary スキルのレベルアップを通知
// @Description レベルに応じたコインとトークンを付与します
// @Tags progression
// @Accept json
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param request body ProgressionRequest true "レベルアップ通知"
// @Success 200 {object} RewardResponse "付与成功"
// @Failure 400 {object} middleware.ErrorResponse "不正なリクエスト"
// @Failure 503 {object} middleware.ErrorResponse "永続化エラー"
// @Router /players/{player_id}/progression [post]
func (h *ProgressionHandler) ReportProgression(c echo.Context) error {
	playerID, err := playerIDParam(c)
	if err != nil {
		return err
	}

	var reqBody ProgressionRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.rewards.OnProgressionEvent(c.Request().Context(), &rewardapp.ProgressionRequest{
		PlayerID: playerID,
		Skill:    reqBody.Skill,
		Level:    reqBody.Level,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RewardResponse{
		PlayerID: resp.PlayerID.String(),
		Skill:    resp.Skill,
		Level:    resp.Level,
		Coins:    resp.Coins,
		Tokens:   resp.Tokens,
	})
}

// TakeRecentReward 直近の報酬取得ハンドラー
// @Summary 直近の報酬を取り出す
// @Description レベルアップメッセージ用。取り出した報酬は削除されます
// @Tags progression
// @Produce json
// @Security Bearer
// @Param player_id path string true "プレイヤーID"
// @Param skill path string true "スキル" example(mining)
// @Param level path int true "レベル" example(20)
// @Success 200 {object} RewardResponse "取得成功"
// @Failure 404 {object} middleware.ErrorResponse "報酬が無い"
// @Router /players/{player_id}/rewards/{skill}/{level} [get]
func (h *ProgressionHandler) TakeRecentReward(c echo.Context) error {
	playerID, err := playerIDParam(c)
	if err != nil {
		return err
	}

	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		return fmt.Errorf("%w: %q", skill.ErrInvalidLevel, c.Param("level"))
	}

	r, err := h.rewards.TakeRecentReward(c.Request().Context(), playerID, c.Param("skill"), level)
	if err != nil {
		return err
	}

	grantedAt := r.GrantedAt
	return c.JSON(http.StatusOK, RewardResponse{
		PlayerID:  r.PlayerID.String(),
		Skill:     r.Skill,
		Level:     r.Level,
		Coins:     r.Coins,
		Tokens:    r.Tokens,
		GrantedAt: &grantedAt,
	})
}
