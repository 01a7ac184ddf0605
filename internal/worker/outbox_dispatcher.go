package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"roulette-server/common/logger"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"
	"roulette-server/internal/notify"

	"go.uber.org/zap"
)

// StartOutboxDispatcher 启动 Outbox 分发器，支持通过 ctx 优雅退出
// 扫描待发送事件，交给通知分发器路由；失败计入重试（上限10次）。
func StartOutboxDispatcher(ctx context.Context, wg *sync.WaitGroup, d *notify.Dispatcher) {
	if d == nil {
		return
	}
	wg.Add(1)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer wg.Done()

		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c, cancel := context.WithTimeout(ctx, 2*time.Second)
				rows, err := model.ListOutboxPending(c, infmysql.SQLX(), 100)
				cancel()
				if err != nil {
					logger.Warn("outbox: list pending failed", zap.Error(err))
					continue
				}
				for _, r := range rows {
					if err := d.Dispatch(ctx, r.Topic, []byte(r.Payload)); err != nil {
						_ = model.MarkOutboxFailed(ctx, infmysql.SQLX(), r.ID, truncateErr(err))
						continue
					}
					if err := model.MarkOutboxSent(ctx, infmysql.SQLX(), r.ID); err != nil {
						logger.Warn("outbox: mark sent failed", zap.Int64("id", r.ID), zap.Error(err))
					}
				}
			}
		}
	}()
}

func truncateErr(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	if len(b) > 240 {
		return string(b[:240])
	}
	return string(b)
}
