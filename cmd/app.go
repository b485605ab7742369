package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"familytree_go/internal/handler"
	"familytree_go/internal/repository"
	"familytree_go/internal/service"
)

// app 命令共用的配置、日志与数据库
type app struct {
	cfg *service.Config
	log *zap.Logger
	db  *repository.DB
}

// bootstrap 加载配置、初始化日志并连接数据库（含迁移）
func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, err := service.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := service.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := repository.InitDB(ctx, cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

// runServe 启动HTTP服务，收到SIGINT/SIGTERM后优雅退出
func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, log := a.cfg, a.log

	// 初始化追踪
	shutdownTracer, err := service.InitTracer(cfg.Trace)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Warn("shutdown tracer", zap.Error(err))
		}
	}()

	// 初始化指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(registry)

	// 仓储与服务
	persons := repository.NewPersonRepository(a.db)
	trees := repository.NewFamilyTreeRepository(a.db)
	relations := repository.NewRelationshipRepository(a.db)

	uploads, err := service.NewUploadService(cfg.Upload, log.Named("upload"), metrics)
	if err != nil {
		return err
	}

	h := handler.New(handler.Services{
		Persons:   service.NewPersonService(persons, trees, log.Named("person"), metrics),
		Trees:     service.NewFamilyTreeService(trees, persons, log.Named("family_tree"), metrics),
		Relations: service.NewRelationshipService(relations, persons, log.Named("relationship"), metrics),
		Views:     service.NewTreeService(persons, log.Named("tree")),
		Uploads:   uploads,
	}, log.Named("http"))

	// 限流
	var limiter service.Limiter
	if cfg.RateLimit.Enabled {
		var cache *service.CacheService
		if cfg.RateLimit.RedisAddr != "" {
			cache = service.NewCacheService(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB)
			if err := cache.Ping(ctx); err != nil {
				log.Warn("redis unavailable, falling back to in-process rate limiting", zap.Error(err))
				_ = cache.Close()
				cache = nil
			} else {
				defer cache.Close()
			}
		}
		limiter = service.NewRateLimiter(cfg.RateLimit, cache, log.Named("ratelimit"))
	}

	auth := service.NewAuth(cfg.Auth)
	if auth.Enabled() {
		log.Info("write routes require a bearer token")
	}

	gin.SetMode(cfg.Server.Mode)
	router := handler.NewRouter(h, handler.RouterOptions{
		Auth:        auth,
		Limiter:     limiter,
		Metrics:     metrics,
		Gatherer:    registry,
		ServiceName: cfg.Trace.ServiceName,
		Tracing:     cfg.Trace.Enabled,
		UploadDir:   cfg.Upload.Dir,
		StaticDir:   cfg.Server.StaticDir,
	})

	// 定时备份
	scheduler := service.NewScheduler(log.Named("scheduler"), 5*time.Minute)
	defer func() {
		stop()
		scheduler.Wait()
	}()
	if cfg.Backup.Interval > 0 {
		if a.db.Driver() == repository.DriverSQLite {
			maint := service.NewMaintenanceService(a.db, log.Named("maintenance"))
			scheduler.Every(ctx, "backup", cfg.Backup.Interval, maint.ScheduledBackup(cfg.Backup))
		} else {
			log.Warn("scheduled backups are only supported for sqlite", zap.String("driver", a.db.Driver()))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server is running", zap.String("addr", srv.Addr), zap.String("driver", a.db.Driver()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
