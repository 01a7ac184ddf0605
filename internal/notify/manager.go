package notify

import (
	"context"
	"time"

	"roulette-server/common/logger"
	"roulette-server/internal/metrics"

	"go.uber.org/zap"
)

// Manager 多渠道通知管理器
// 渠道由构造时注入，按注入顺序作为兜底顺序；不持有全局状态，便于测试替换
type Manager struct {
	channels []Channel
}

// NewManager 构造管理器，channels 顺序即兜底优先级
func NewManager(channels ...Channel) *Manager {
	return &Manager{channels: channels}
}

// NewManagerFromOrder 按名称顺序挑选渠道构造管理器，未知名称忽略
func NewManagerFromOrder(order []string, available map[string]Channel) *Manager {
	var chs []Channel
	for _, name := range order {
		if ch, ok := available[name]; ok {
			chs = append(chs, ch)
		}
	}
	return NewManager(chs...)
}

// Send 按兜底顺序投递：首个可用渠道成功即返回；
// 失败或不可用则降级到下一渠道，全部失败返回 ErrAllChannelsFailed。
// ErrNoRecipient 视为该渠道对此消息不适用，降级但不计失败指标。
func (m *Manager) Send(ctx context.Context, msg *Message) error {
	var lastName string
	for _, ch := range m.channels {
		if !ch.Available() {
			metrics.RecordNotify(ch.Name(), "skipped", time.Now())
			continue
		}
		if lastName != "" {
			metrics.RecordNotifyFallback(lastName, ch.Name())
		}

		started := time.Now()
		err := ch.Send(ctx, msg)
		if err == nil {
			metrics.RecordNotify(ch.Name(), "success", started)
			return nil
		}
		if err == ErrNoRecipient {
			metrics.RecordNotify(ch.Name(), "skipped", started)
			lastName = ch.Name()
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.RecordNotify(ch.Name(), "fail", started)
		logger.Warn("notify channel send failed",
			zap.String("channel", ch.Name()),
			zap.String("kind", msg.Kind),
			zap.Int64("user_id", msg.UserID),
			zap.Error(err))
		lastName = ch.Name()
	}
	return ErrAllChannelsFailed
}

// SendAll 向所有可用渠道各投递一次（如中奖同时发邮件+站内信），
// 任一渠道成功即视为成功。
func (m *Manager) SendAll(ctx context.Context, msg *Message) error {
	anyOK := false
	for _, ch := range m.channels {
		if !ch.Available() {
			continue
		}
		started := time.Now()
		err := ch.Send(ctx, msg)
		switch {
		case err == nil:
			metrics.RecordNotify(ch.Name(), "success", started)
			anyOK = true
		case err == ErrNoRecipient:
			metrics.RecordNotify(ch.Name(), "skipped", started)
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.RecordNotify(ch.Name(), "fail", started)
			logger.Warn("notify channel send failed",
				zap.String("channel", ch.Name()),
				zap.String("kind", msg.Kind),
				zap.Error(err))
		}
	}
	if !anyOK {
		return ErrAllChannelsFailed
	}
	return nil
}
