package worker

import (
	"context"
	"sync"
	"time"

	"roulette-server/common/logger"
	"roulette-server/internal/config"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"
	"roulette-server/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartDrawSweeper 启动定时开奖扫描器
// 周期性查询已到 scheduled_draw_time 且未开奖的活动，逐个执行开奖。
// 开奖引擎内部持有行锁并类型化拒绝重复开奖，多实例部署下扫描重叠是安全的。
func StartDrawSweeper(ctx context.Context, wg *sync.WaitGroup, drawSvc service.DrawService) {
	interval := 10 * time.Second
	if cfg := config.Get(); cfg != nil && cfg.Draw.SweepIntervalSec > 0 {
		interval = time.Duration(cfg.Draw.SweepIntervalSec) * time.Second
	}

	wg.Add(1)
	go func() {
		ticker := time.NewTicker(interval)
		defer wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOnce(ctx, drawSvc)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, drawSvc service.DrawService) {
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	due, err := model.ListDueForDraw(c, infmysql.SQLX(), time.Now().UnixMilli(), 50)
	cancel()
	if err != nil {
		logger.Warn("sweeper: list due raffles failed", zap.Error(err))
		return
	}

	// 到点未开奖的活动一律开奖：设置了 scheduled_draw_time 即视为授权定时开奖
	nowMs := time.Now().UnixMilli()
	for i := range due {
		r := due[i]
		if !model.DueForDraw(&r, nowMs) {
			continue
		}
		traceID := uuid.NewString()
		out, err := drawSvc.Execute(ctx, service.DrawInput{
			RaffleID: r.ID,
			Operator: "system",
			DrawType: service.DrawTypeScheduled,
			TraceID:  traceID,
		})
		switch err {
		case nil:
			logger.Info("sweeper: raffle drawn",
				zap.Int64("raffle_id", r.ID),
				zap.Int64("winner_pid", out.WinnerParticipationID),
				zap.String("trace_id", traceID))
		case service.ErrAlreadyDrawn:
			// 其他实例先开了，正常
		case service.ErrNoParticipants:
			logger.Warn("sweeper: raffle due but empty, leaving for manual handling",
				zap.Int64("raffle_id", r.ID))
		default:
			logger.Error("sweeper: draw failed",
				zap.Int64("raffle_id", r.ID),
				zap.String("trace_id", traceID),
				zap.Error(err))
		}
	}
}
