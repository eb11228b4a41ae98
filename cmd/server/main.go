package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "skillcoins/internal/application/auth"
	bridgeapp "skillcoins/internal/application/bridge"
	ledgerapp "skillcoins/internal/application/ledger"
	playerapp "skillcoins/internal/application/player"
	purchaseapp "skillcoins/internal/application/purchase"
	rewardapp "skillcoins/internal/application/reward"
	sessionapp "skillcoins/internal/application/session"
	"skillcoins/internal/domain/reward"
	"skillcoins/internal/domain/skill"
	"skillcoins/internal/infrastructure/cache/memory"
	rediscache "skillcoins/internal/infrastructure/cache/redis"
	"skillcoins/internal/infrastructure/catalog"
	"skillcoins/internal/infrastructure/concurrency"
	"skillcoins/internal/infrastructure/config"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
	"skillcoins/internal/infrastructure/persistence/mysql"
	grpcserver "skillcoins/internal/presentation/grpc"
	"skillcoins/internal/presentation/rest"
)

func main() {
	ctx := context.Background()

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(ctx, &cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(ctx, &cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	logLevel, err := otelinfra.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("Invalid LOG_LEVEL, falling back to %s: %v", logLevel, err)
	}
	logger := otelinfra.NewLogger(otelinfra.Tracer("skillcoins")).
		WithService(cfg.OpenTelemetry.ServiceName).
		WithMinLevel(logLevel)
	metrics, err := otelinfra.NewMetrics("skillcoins")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// データベース接続の初期化（起動直後のMySQLを30秒まで待つ）
	dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := mysql.NewDB(dbCtx, &cfg.Database)
	dbCancel()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// リポジトリの初期化
	txManager := mysql.NewTransactionManager(db)
	balanceStore := mysql.NewBalanceStore(db, txManager)
	playerRepo := mysql.NewPlayerRepository(db)
	levelRepo := mysql.NewSkillLevelRepository(db)
	inventoryRepo := mysql.NewInventoryRepository(db)

	// 報酬キャッシュと購入通知（Redisが無効ならプロセス内キャッシュ）
	var (
		rewardCache reward.RecentRewardCache = memory.NewRewardCache(cfg.Economy.RewardCacheTTL)
		notifier    purchaseapp.Notifier     = purchaseapp.NopNotifier{}
	)
	if cfg.Redis.Enabled {
		redisClient, err := rediscache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		rewardCache = rediscache.NewRewardCache(redisClient, cfg.Economy.RewardCacheTTL)
		notifier = rediscache.NewPurchasePublisher(redisClient, logger)
	}

	// ショップカタログとスキル一覧
	shopCatalog, err := catalog.NewYAMLLoader(cfg.Economy.CatalogDir, logger).Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load shop catalog: %v", err)
	}

	overrides := make(map[skill.Skill]int, len(cfg.Economy.SkillMaxLevels))
	for name, max := range cfg.Economy.SkillMaxLevels {
		overrides[skill.Skill(name)] = max
	}
	registry, err := skill.NewRegistry(skill.DefaultSkills, cfg.Economy.DefaultMaxLevel, overrides)
	if err != nil {
		log.Fatalf("Failed to build skill registry: %v", err)
	}

	// アプリケーションサービスの初期化
	// 台帳とセッションで同じKeyedMutexを共有しないこと
	ledgerService := ledgerapp.NewLedgerService(
		balanceStore,
		concurrency.NewKeyedMutex(cfg.Economy.LockShards),
		cfg.Economy.FlushConcurrency,
		logger,
		metrics,
	)
	sessionManager := sessionapp.NewManager(
		concurrency.NewKeyedMutex(cfg.Economy.LockShards),
		cfg.Economy.SessionGracePeriod,
		logger,
	)

	purchaseService := purchaseapp.NewPurchaseApplicationService(
		sessionManager,
		ledgerService,
		[]purchaseapp.Orchestrator{
			purchaseapp.NewLevelBuyOrchestrator(ledgerService, registry, levelRepo, cfg.Economy.TokensPerLevel),
			purchaseapp.NewSpawnerTierOrchestrator(ledgerService, shopCatalog, inventoryRepo),
			purchaseapp.NewCatalogOrchestrator(ledgerService, shopCatalog, inventoryRepo),
		},
		notifier,
		logger,
		metrics,
	)
	rewardService := rewardapp.NewRewardApplicationService(ledgerService, registry, levelRepo, rewardCache, logger, metrics)
	bridgeService := bridgeapp.NewBridgeApplicationService(ledgerService, playerRepo, logger, metrics)
	playerService := playerapp.NewPlayerApplicationService(ledgerService, sessionManager, playerRepo, logger)
	authService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, rest.Services{
		Ledger:    ledgerService,
		Players:   playerService,
		Rewards:   rewardService,
		Bridge:    bridgeService,
		Purchases: purchaseService,
		Auth:      authService,
		Catalog:   shopCatalog,
		Health:    db,
	})
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg, logger, metrics, grpcserver.Services{
			Ledger:  ledgerService,
			Rewards: rewardService,
			Bridge:  bridgeService,
		})
		if err != nil {
			log.Fatalf("Failed to create gRPC server: %v", err)
		}
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("REST API server starting on %s", address)
		if err := router.Start(address); err != nil {
			log.Printf("REST API server error: %v", err)
		}
	}()

	if grpcSrv != nil {
		go func() {
			if err := grpcSrv.Start(); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
	}

	<-quit
	log.Println("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 新しいリクエストを止めてから残高を書き出す
	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down REST API server: %v", err)
	}
	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			log.Printf("Error shutting down gRPC server: %v", err)
		}
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer flushCancel()
	if err := ledgerService.SaveAll(flushCtx); err != nil {
		log.Printf("Failed to flush balances: %v", err)
	}

	log.Println("Servers stopped")
}
