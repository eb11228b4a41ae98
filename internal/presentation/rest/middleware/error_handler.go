package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"skillcoins/internal/application/auth"
	"skillcoins/internal/application/bridge"
	"skillcoins/internal/application/purchase"
	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/player"
	"skillcoins/internal/domain/reward"
	"skillcoins/internal/domain/session"
	"skillcoins/internal/domain/shop"
	"skillcoins/internal/domain/skill"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// domainError ドメインエラーとHTTPレスポンスの対応
type domainError struct {
	target error
	status int
	code   string
}

// domainErrors 上から順に評価する。ラップされたエラーは最初に一致したものが採用される
var domainErrors = []domainError{
	{currency.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
	{shop.ErrNotEnoughItems, http.StatusConflict, "insufficient_items"},
	{shop.ErrInventoryFull, http.StatusConflict, "inventory_full"},
	{purchase.ErrAlreadyAtLimit, http.StatusConflict, "at_max_already"},

	{player.ErrPlayerNotFound, http.StatusNotFound, "player_not_found"},
	{session.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{shop.ErrSectionNotFound, http.StatusNotFound, "section_not_found"},
	{shop.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{reward.ErrRecentRewardNotFound, http.StatusNotFound, "recent_reward_not_found"},

	{currency.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{bridge.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{currency.ErrInvalidCurrencyType, http.StatusBadRequest, "invalid_currency_type"},
	{skill.ErrUnknownSkill, http.StatusBadRequest, "unknown_skill"},
	{skill.ErrInvalidLevel, http.StatusBadRequest, "invalid_level"},
	{session.ErrInvalidAction, http.StatusBadRequest, "invalid_action"},
	{session.ErrUnknownWizardKind, http.StatusBadRequest, "unknown_wizard_kind"},
	{session.ErrUnknownOrigin, http.StatusBadRequest, "unknown_origin"},
	{purchase.ErrInvalidTarget, http.StatusBadRequest, "invalid_target"},
	{purchase.ErrNoOrchestrator, http.StatusBadRequest, "no_orchestrator"},
	{auth.ErrInvalidServerID, http.StatusBadRequest, "invalid_server_id"},
	{player.ErrInvalidPlayerID, http.StatusBadRequest, "invalid_player_id"},
	{player.ErrInvalidPlayerName, http.StatusBadRequest, "invalid_player_name"},
	{shop.ErrInvalidSpawnerTier, http.StatusBadRequest, "invalid_spawner_tier"},
	{shop.ErrInvalidItemType, http.StatusBadRequest, "invalid_item_type"},
	{shop.ErrPriceNotConfigured, http.StatusBadRequest, "configuration_missing"},

	{currency.ErrPersistenceFailure, http.StatusServiceUnavailable, "persistence_failure"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, de := range domainErrors {
		if !errors.Is(err, de.target) {
			continue
		}
		fields := map[string]interface{}{
			"code":  de.code,
			"error": err.Error(),
		}
		if de.status >= http.StatusInternalServerError {
			logger.Error(ctx, "Request failed on persistence", err, fields)
		} else {
			logger.Warn(ctx, "Request rejected", fields)
		}
		return c.JSON(de.status, ErrorResponse{
			Error:   de.code,
			Message: err.Error(),
			Code:    de.code,
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
