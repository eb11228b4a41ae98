package rest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"skillcoins/internal/presentation/openapi"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const (
	openAPIPath = "/openapi.yaml"
	// redocVersion CDNから読むReDocのバージョン
	redocVersion = "2.1.5"
)

// openAPIETag 埋め込み定義の内容から計算したETag
var openAPIETag = func() string {
	sum := sha256.Sum256(openapi.Spec)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

var redocPage = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<title>SkillCoins API - ReDoc</title>
	<meta charset="utf-8"/>
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<link href="https://fonts.googleapis.com/css?family=Montserrat:300,400,700|Roboto:300,400,700" rel="stylesheet">
	<style>body { margin: 0; padding: 0; }</style>
</head>
<body>
	<redoc spec-url="%s"></redoc>
	<script src="https://cdn.jsdelivr.net/npm/redoc@%s/bundles/redoc.standalone.js"></script>
</body>
</html>
`, openAPIPath, redocVersion)

// SetupSwagger OpenAPI定義とSwagger UI / ReDocを登録
func SetupSwagger(e *echo.Echo) {
	e.GET(openAPIPath, serveOpenAPISpec)
	e.GET("/swagger/*", echoSwagger.EchoWrapHandler(echoSwagger.URL(openAPIPath)))
	e.GET("/redoc", func(c echo.Context) error {
		return c.HTML(http.StatusOK, redocPage)
	})
}

// serveOpenAPISpec 定義はバイナリに埋め込まれているのでETagで再検証させる
func serveOpenAPISpec(c echo.Context) error {
	c.Response().Header().Set("ETag", openAPIETag)
	if c.Request().Header.Get("If-None-Match") == openAPIETag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, "application/x-yaml", openapi.Spec)
}
