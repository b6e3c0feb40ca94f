package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/api/handler"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/api/middleware"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/api/router"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/repository"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/service"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/database"
	applogger "github.com/Abdullah-Shahriar/UIU-Hub/pkg/logger"
	"github.com/Abdullah-Shahriar/UIU-Hub/pkg/redis"
)

// sessionSweepInterval 过期规划会话的回收周期
const sessionSweepInterval = time.Minute

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("UIUHUB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("db_enabled", cfg.Database.Enabled),
	)

	// 3. 连接数据库（可选：未启用时课表目录功能不可用）
	var (
		db   *gorm.DB
		repo *repository.Repository
	)
	if cfg.Database.Enabled {
		db, err = database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		logger.Info("数据库连接成功")

		// 3.1 执行数据库迁移
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		repo = repository.NewRepository(db)
	} else {
		logger.Warn("数据库未启用，课表目录功能将不可用")
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var (
		cache   service.ParseCache
		limiter middleware.RateLimiter
	)
	deps := make(map[string]router.Pinger)
	if repo != nil {
		deps["database"] = repo
	}
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，解析缓存与限流将不可用", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		cache = rdb
		limiter = rdb
		deps["redis"] = rdb
	}

	// 5. 依赖注入: Repository → Service → Handler
	svc := service.NewService(cfg, repo, cache, logger)
	h := handler.NewHandler(svc)

	svc.Sessions.StartJanitor(sessionSweepInterval)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, limiter, deps, logger)

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 停止会话清理协程
	svc.Sessions.Stop()

	// 关闭数据库连接
	if db != nil {
		if closeDB, _ := db.DB(); closeDB != nil {
			closeDB.Close()
		}
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
