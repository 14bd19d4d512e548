// file: cmd/gateway/main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ShopAegis/aegconf"
	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/aegmiddleware"
	"ShopAegis/internal/aegobserve"
	"ShopAegis/internal/service"
	"ShopAegis/internal/transport/http/router"
)

const version = "v1.0.0"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 在日志系统完全初始化前，使用标准 log
	log.Printf("ShopAegis %s 正在启动...", version)

	loader, err := aegconf.NewLoader(*configPath)
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}

	aegobserve.InitLogger(cfg.Server.LogLevel)
	slog.Info("ShopAegis starting up", "version", version, "config", *configPath)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("CRITICAL: 创建数据库目录失败: %v", err)
	}
	db, err := sqlite.Open(rootCtx, cfg.Database.Path)
	if err != nil {
		log.Fatalf("CRITICAL: 初始化数据库失败: %v", err)
	}
	defer func() {
		slog.Info("正在关闭数据库连接...")
		if err := db.Close(); err != nil {
			slog.Error("关闭数据库时发生错误", "error", err)
		}
	}()

	store := sqlite.NewStore(db)
	if err := service.InitPlatform(rootCtx, store); err != nil {
		log.Fatalf("CRITICAL: 初始化平台数据失败: %v", err)
	}
	slog.Info("存储层: 表结构与基础数据就绪", "path", cfg.Database.Path)

	tokens, err := service.NewTokenManager(cfg.Auth.JWTKey, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("CRITICAL: 初始化令牌管理器失败: %v", err)
	}
	authorizer := service.NewAuthorizer(store, cfg.Cache.PrivilegeEntries, cfg.Cache.PrivilegeTTL)
	accounts := service.NewAccountService(store, tokens)

	if cfg.Auth.BootstrapAdminUser != "" {
		created, err := accounts.EnsureAdmin(rootCtx, cfg.Auth.BootstrapAdminUser, cfg.Auth.BootstrapAdminPassword)
		if err != nil {
			log.Fatalf("CRITICAL: 创建初始管理员失败: %v", err)
		}
		if created {
			slog.Warn("系统中无账户，已创建初始管理员，请尽快修改密码", "username", cfg.Auth.BootstrapAdminUser)
		}
	}
	slog.Info("服务层: 初始化完成")

	limiter := aegmiddleware.NewRateLimiter(rootCtx, cfg.RateLimit.Settings())
	loginLock := aegmiddleware.NewLoginFailureLock(cfg.Login.MaxFailures, cfg.Login.Lockout)

	// 日志级别和限流参数支持热更新，其余配置需要重启
	loader.Watch(func(c *aegconf.Config) {
		aegobserve.SetLevel(c.Server.LogLevel)
		limiter.Apply(c.RateLimit.Settings())
		authorizer.Invalidate()
	})

	aegobserve.Register()
	slog.Info("监控: metrics 已注册。")
	pprofServer := aegobserve.EnablePprof(cfg.Server.PprofAddr)

	httpRouter := router.New(router.Dependencies{
		Orders:       service.NewOrderService(store, authorizer),
		Products:     service.NewProductService(store, authorizer),
		Lookups:      service.NewLookups(store, authorizer),
		Accounts:     accounts,
		Tokens:       tokens,
		Limiter:      limiter,
		LoginLock:    loginLock,
		DB:           db,
		AllowOrigins: cfg.Server.AllowOrigins,
	})
	slog.Info("传输层: HTTP 路由器创建完成。")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("ShopAegis 启动成功，开始监听HTTP请求...", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP服务启动失败", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	slog.Info("收到停机信号，准备优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if pprofServer != nil {
		_ = pprofServer.Shutdown(ctx)
	}
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("HTTP服务优雅关闭失败", "error", err)
		return
	}
	slog.Info("HTTP服务已成功关闭。")
}
