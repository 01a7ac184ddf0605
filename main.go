package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"roulette-server/common"
	"roulette-server/common/logger"
	"roulette-server/internal/config"
	infmysql "roulette-server/internal/infra/mysql"
	infrds "roulette-server/internal/infra/redis"
	"roulette-server/internal/notify"
	"roulette-server/internal/service"
	"roulette-server/internal/worker"
	_ "roulette-server/routers"

	beego "github.com/beego/beego/v2/server/web"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[Main] 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	logger.InitLogger()
	defer logger.Sync()
	if cfg.Server.LogLevel != "" {
		logger.SetLevel(cfg.Server.LogLevel)
	}

	// MySQL：common.InitDB 建连，句柄注入 infra 层供 model 使用
	db := common.InitDB(cfg.Database.DSN, cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)
	infmysql.UseDB(db.DB)

	// Redis：幂等锁、缓存、Token 黑名单、限流
	infrds.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// 通知通道按配置顺序组装，未配置时邮件优先、站内兜底
	order := cfg.Notify.FallbackOrder
	if len(order) == 0 {
		order = []string{"email", "inapp"}
	}
	mgr := notify.NewManagerFromOrder(order, map[string]notify.Channel{
		"email": notify.NewEmailChannel(),
		"inapp": notify.NewInAppChannel(),
	})
	dispatcher := notify.NewDispatcher(mgr, infmysql.SQLX())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// 后台任务：outbox 投递 + 定时开奖扫描
	worker.StartOutboxDispatcher(ctx, &wg, dispatcher)
	worker.StartDrawSweeper(ctx, &wg, service.NewDrawService())

	// 配置热更新（仅 Nacos 模式生效）
	if err := config.StartWatch(ctx, func(oldCfg, newCfg *config.Config) {
		config.Set(newCfg)
		if newCfg.Server.LogLevel != "" && newCfg.Server.LogLevel != oldCfg.Server.LogLevel {
			logger.SetLevel(newCfg.Server.LogLevel)
		}
	}); err != nil {
		logger.Warn("config watch not started", zap.Error(err))
	}

	// 优雅退出：收到信号后停 worker，再等待收尾
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		wg.Wait()
		logger.Sync()
		os.Exit(0)
	}()

	port := cfg.Server.Port
	if port <= 0 {
		port = 8080
	}
	beego.BConfig.CopyRequestBody = true
	logger.Info("server starting", zap.Int("port", port))
	beego.Run(fmt.Sprintf(":%d", port))
}
