package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
// ErrorHandlerMiddlewareより外側に置くと、変換後のステータスで分類される
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method

			err := next(c)

			route := c.Path()
			metrics.RecordRequest(ctx, method, route)
			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			if errorType := classifyStatus(responseStatus(c, err)); errorType != "" {
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}

// responseStatus 未コミットのエラーはHTTPErrorのコードを優先する
func responseStatus(c echo.Context, err error) int {
	if err != nil && !c.Response().Committed {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr.Code
		}
		return 500
	}
	return c.Response().Status
}

func classifyStatus(status int) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return ""
	}
}
