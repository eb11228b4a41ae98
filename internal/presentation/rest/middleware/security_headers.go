package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// pathClass ヘッダー方針を切り替えるためのパス分類
type pathClass int

const (
	pathClassOther pathClass = iota
	pathClassAPI
	pathClassDocs
)

const (
	// APIはJSONしか返さないので何も読み込ませない
	apiCSP   = "default-src 'none'; frame-ancestors 'none'"
	// Swagger UIとReDocはCDNのスクリプトとフォントを読む
	docsCSP  = "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline' https://unpkg.com https://fonts.googleapis.com; font-src 'self' https://fonts.gstatic.com; img-src 'self' data: https:; frame-ancestors 'none'"
	otherCSP = "default-src 'self'; frame-ancestors 'none'"
)

// SecurityHeadersMiddleware セキュリティヘッダーを設定するミドルウェア
//
// /api/ 配下は残高を返すためキャッシュを禁止する。
func SecurityHeadersMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")

			switch classifyPath(c.Request().URL.Path) {
			case pathClassAPI:
				h.Set("Content-Security-Policy", apiCSP)
				h.Set("Cache-Control", "no-store")
			case pathClassDocs:
				h.Set("Content-Security-Policy", docsCSP)
			default:
				h.Set("Content-Security-Policy", otherCSP)
			}

			if c.Scheme() == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}

func classifyPath(path string) pathClass {
	switch {
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return pathClassAPI
	case isSwaggerPath(path):
		return pathClassDocs
	default:
		return pathClassOther
	}
}

// isSwaggerPath Swagger関連のパスかどうかを判定
func isSwaggerPath(path string) bool {
	return path == "/swagger" || strings.HasPrefix(path, "/swagger/") ||
		path == "/redoc" || path == "/openapi.yaml"
}
