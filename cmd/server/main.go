package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/dawitk/fleettrack/internal/alarm"
	"github.com/dawitk/fleettrack/internal/api/handlers"
	"github.com/dawitk/fleettrack/internal/config"
	"github.com/dawitk/fleettrack/internal/control"
	"github.com/dawitk/fleettrack/internal/ingest"
	"github.com/dawitk/fleettrack/internal/queue"
	"github.com/dawitk/fleettrack/internal/repository"
	"github.com/dawitk/fleettrack/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting fleettrack",
		zap.String("http_port", cfg.ServerPort),
		zap.String("tcp_port", cfg.TCPPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	vehicleRepo := repository.NewVehicleRepository(db)
	posRepo := repository.NewPositionRepository(db)
	cmdRepo := repository.NewCommandRepository(db)
	limitRepo := repository.NewSpeedLimitRepository(db)
	alarmRepo := repository.NewAlarmRepository(db)

	// 连接 Redis 队列（不可达时降级，摄取丢样本但不阻塞）
	q := queue.New(ctx, logger, cfg.RedisAddr, cfg.RedisDB, cfg.QueueName)
	defer q.Close()

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	wsHub.SetInitDataProvider(func() interface{} {
		positions, err := posRepo.ListLatest(context.Background())
		if err != nil {
			logger.Error("Failed to load latest positions", zap.Error(err))
			return nil
		}
		return positions
	})
	go wsHub.Run()

	// 告警通知钩子
	notifier := alarm.NewNotifier(logger, alarmRepo)

	// 摄取管线：TCP 监听 → 解码/身份解析 → 队列 → 持久化消费者
	resolver := ingest.NewResolver(logger, vehicleRepo)
	listener := ingest.NewListener(logger, resolver, q, ":"+cfg.TCPPort)
	consumer := ingest.NewConsumer(logger, q, posRepo, limitRepo, notifier, wsHub, cfg.QueuePopWait)

	// 指令与限速控制器
	controller := control.NewController(logger, cmdRepo, limitRepo, cfg.CommandExecDelay)

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(
		logger,
		vehicleRepo,
		posRepo,
		alarmRepo,
		controller,
		q,
		wsHub,
	)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// 启动摄取管线和 HTTP 服务
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := g.Wait(); err != nil {
		logger.Error("Pipeline exited with error", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
