package rest

import (
	"context"
	"net/http"

	"skillcoins/internal/infrastructure/config"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
	"skillcoins/internal/presentation/rest/handler"
	restmiddleware "skillcoins/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Services ルーターが公開するアプリケーションサービス
type Services struct {
	Ledger    handler.BalanceLedger
	Players   handler.PlayerLifecycle
	Rewards   handler.RewardService
	Bridge    handler.CommandBridge
	Purchases handler.PurchaseService
	Auth      handler.TokenIssuer
	Catalog   handler.ShopCatalog
	// Health nilなら/healthは常にok
	Health HealthChecker
}

// HealthChecker 永続化先の疎通確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Router REST APIルーター
type Router struct {
	echo *echo.Echo
}

// NewRouter 新しいRouterを作成
func NewRouter(cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics, svcs Services) (*Router, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// エラーはErrorHandlerMiddlewareで書き込み済み。ミドルウェアより前で失敗した場合だけここに来る
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		logger.Error(c.Request().Context(), "Unhandled HTTP error", err, nil)
		_ = c.JSON(http.StatusInternalServerError, restmiddleware.ErrorResponse{
			Error:   "internal_server_error",
			Message: "An unexpected error occurred",
		})
	}

	setupMiddleware(e, logger, metrics)
	setupRoutes(e, cfg, logger, svcs)
	SetupSwagger(e)

	return &Router{echo: e}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, restmiddleware.APIKeyHeader},
	}))

	e.Use(middleware.RequestID())
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.TracingMiddleware())
	if metrics != nil {
		e.Use(restmiddleware.MetricsMiddleware(metrics))
	}
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// 最も内側。以降のミドルウェアは変換後のステータスを見る
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, svcs Services) {
	currencyHandler := handler.NewCurrencyHandler(svcs.Ledger)
	playerHandler := handler.NewPlayerHandler(svcs.Players)
	progressionHandler := handler.NewProgressionHandler(svcs.Rewards)
	commandHandler := handler.NewCommandHandler(svcs.Bridge)
	wizardHandler := handler.NewWizardHandler(svcs.Purchases)
	authHandler := handler.NewAuthHandler(svcs.Auth)
	shopHandler := handler.NewShopHandler(svcs.Catalog)

	api := e.Group("/api/v1")

	// 管理API（APIキー認証）
	admin := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	admin.GET("/players/:player_id/balance", currencyHandler.GetBalanceAdmin)
	admin.PUT("/players/:player_id/balance/:currency", currencyHandler.SetBalanceAdmin)
	admin.POST("/servers/:server_id/token", authHandler.IssueServerToken)

	// ホストサーバー向け（JWT認証）
	host := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))

	players := host.Group("/players/:player_id")
	players.GET("/balance", currencyHandler.GetBalance)
	players.POST("/join", playerHandler.Join)
	players.POST("/quit", playerHandler.Quit)
	players.POST("/progression", progressionHandler.ReportProgression)
	players.GET("/rewards/:skill/:level", progressionHandler.TakeRecentReward)

	wizards := players.Group("/wizards/:kind")
	wizards.POST("", wizardHandler.Open)
	wizards.GET("", wizardHandler.Snapshot)
	wizards.DELETE("", wizardHandler.Close)
	wizards.POST("/actions", wizardHandler.Act)
	wizards.POST("/confirm", wizardHandler.Confirm)
	wizards.POST("/back", wizardHandler.Back)

	host.GET("/shop/sections", shopHandler.ListSections)
	host.POST("/commands/economy", commandHandler.ForwardCommand)

	// ヘルスチェック（認証不要）。DBに届かない間は503を返してLBから外させる
	e.GET("/health", func(c echo.Context) error {
		if svcs.Health != nil {
			if err := svcs.Health.HealthCheck(c.Request().Context()); err != nil {
				logger.Warn(c.Request().Context(), "Health check failed", map[string]interface{}{"error": err.Error()})
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler テスト用にhttp.Handlerとして返す
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってからサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
