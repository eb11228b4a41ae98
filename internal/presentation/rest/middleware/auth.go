package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"skillcoins/internal/infrastructure/config"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// ServerIDKey 認証済みのホストサーバーIDを格納するコンテキストキー
const ServerIDKey = "server_id"

// AuthMiddleware ホストサーバーのJWT認証ミドルウェア
//
// トークンはHMAC署名で、server_idクレームを持つこと。
func AuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			tokenString, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				logger.Warn(ctx, "Missing or malformed authorization header", nil)
				return unauthorized(c, "Missing or malformed authorization header")
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(cfg.Secret), nil
			}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
			if err != nil || !token.Valid {
				fields := map[string]interface{}{}
				if err != nil {
					fields["error"] = err.Error()
				}
				logger.Warn(ctx, "Invalid token", fields)
				return unauthorized(c, "Invalid or expired token")
			}

			if cfg.Issuer != "" {
				if iss, _ := claims.GetIssuer(); iss != cfg.Issuer {
					logger.Warn(ctx, "Unexpected token issuer", map[string]interface{}{"issuer": iss})
					return unauthorized(c, "Invalid or expired token")
				}
			}

			serverID, ok := claims[ServerIDKey].(string)
			if !ok || serverID == "" {
				logger.Warn(ctx, "Missing server_id in token claims", nil)
				return unauthorized(c, "Missing server_id in token")
			}

			c.Set(ServerIDKey, serverID)
			return next(c)
		}
	}
}

// bearerToken "Bearer <token>" からトークンを取り出す
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
