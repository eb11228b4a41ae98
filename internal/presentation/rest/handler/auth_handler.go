package handler

import (
	"context"
	"net/http"

	authapp "skillcoins/internal/application/auth"

	"github.com/labstack/echo/v4"
)

// TokenIssuer ホストサーバー用トークンの発行
type TokenIssuer interface {
	IssueServerToken(ctx context.Context, req *authapp.IssueTokenRequest) (*authapp.IssueTokenResponse, error)
}

// AuthHandler 認証関連ハンドラー
type AuthHandler struct {
	authService TokenIssuer
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authService TokenIssuer) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// IssueServerToken トークン発行ハンドラー（管理API用）
// @Summary ホストサーバー用のトークンを発行
// @Description server_idクレームを持つJWTを発行します
// @Tags admin
// @Produce json
// @Param server_id path string true "サーバーID" example(survival-1)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} IssueTokenResponse "発行成功"
// @Failure 400 {object} middleware.ErrorResponse "不正なリクエスト"
// @Failure 401 {object} middleware.ErrorResponse "認証エラー"
// @Router /admin/servers/{server_id}/token [post]
func (h *AuthHandler) IssueServerToken(c echo.Context) error {
	resp, err := h.authService.IssueServerToken(c.Request().Context(), &authapp.IssueTokenRequest{
		ServerID: c.Param("server_id"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, IssueTokenResponse{
		Token:     resp.Token,
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
	})
}
