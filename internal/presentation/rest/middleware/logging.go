package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// LoggingMiddleware リクエスト単位のアクセスログ
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			logger.Debug(req.Context(), "HTTP request started", map[string]interface{}{
				"request_id":  requestID,
				"method":      req.Method,
				"path":        req.URL.Path,
				"remote_addr": req.RemoteAddr,
				"user_agent":  req.UserAgent(),
			})

			err := next(c)

			fields := map[string]interface{}{
				"request_id":  requestID,
				"method":      req.Method,
				"path":        req.URL.Path,
				"route":       c.Path(),
				"status_code": c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if serverID, ok := c.Get(ServerIDKey).(string); ok {
				fields["server_id"] = serverID
			}

			// TracingMiddlewareが差し替えたコンテキストを使う
			ctx := c.Request().Context()
			if err != nil {
				logger.Error(ctx, "HTTP request failed", err, fields)
			} else {
				logger.Info(ctx, "HTTP request completed", fields)
			}

			return err
		}
	}
}
