package notify

import (
	"context"
	"fmt"
	"time"

	"roulette-server/common"
	"roulette-server/common/logger"
	"roulette-server/internal/config"
	infmq "roulette-server/internal/infra/rocketmq"
	"roulette-server/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// Dispatcher 将 outbox 事件翻译成具体通知动作
// 每个 topic 对应一个处理函数；处理函数内部出错即整条事件失败，
// 由 outbox 重试机制兜底（最多10次）。
type Dispatcher struct {
	mgr *Manager
	db  *sqlx.DB
}

// NewDispatcher 构造事件分发器
func NewDispatcher(mgr *Manager, db *sqlx.DB) *Dispatcher {
	return &Dispatcher{mgr: mgr, db: db}
}

// Dispatch 按 topic 路由处理事件，未知 topic 记日志后按成功处理（避免毒消息卡队列）
func (d *Dispatcher) Dispatch(ctx context.Context, topic string, payload []byte) error {
	switch topic {
	case model.TopicWinnerSelected:
		return d.onWinnerSelected(ctx, payload)
	case model.TopicRaffleCreated:
		return d.onRaffleCreated(ctx, payload)
	case model.TopicParticipantJoin:
		return d.onParticipantRegistered(ctx, payload)
	case model.TopicAccountCreated:
		return d.onAccountCreated(ctx, payload)
	case model.TopicPasswordReset:
		return d.onPasswordReset(ctx, payload)
	case model.TopicRaffleStateMoved:
		// 状态流转事件仅进公共事件流，无个人通知
		d.publishFeed(topic, payload)
		return nil
	default:
		logger.Warn("notify: unknown outbox topic", zap.String("topic", topic))
		return nil
	}
}

// WinnerSelectedEvent 开奖事件载荷
type WinnerSelectedEvent struct {
	RaffleID          int64  `json:"raffle_id"`
	RaffleTitle       string `json:"raffle_title"`
	WinnerUserID      int64  `json:"winner_user_id"`
	ParticipantNumber int    `json:"participant_number"`
	DrawType          string `json:"draw_type"`
}

// onWinnerSelected 开奖通知：
// 1. 中奖者走全渠道（邮件+站内信）
// 2. 管理员批量站内通报，批次间加随机间隔避免邮件网关瞬时拥塞
// 3. 事件进公共事件流
func (d *Dispatcher) onWinnerSelected(ctx context.Context, payload []byte) error {
	var evt WinnerSelectedEvent
	if err := common.JsonUnmarshal(payload, &evt); err != nil {
		logger.Warn("notify: bad winner payload", zap.Error(err))
		return nil // 载荷损坏无法重试恢复，丢弃
	}

	winner, err := model.GetUserByID(ctx, d.db, evt.WinnerUserID)
	if err != nil {
		return fmt.Errorf("load winner %d: %w", evt.WinnerUserID, err)
	}

	msg := &Message{
		UserID: winner.ID,
		Email:  winner.Email,
		Kind:   model.NotifyKindWinner,
		Title:  "恭喜中奖！",
		Body: fmt.Sprintf("您在活动「%s」中以 %d 号中奖，请留意后续奖品发放通知。",
			evt.RaffleTitle, evt.ParticipantNumber),
	}
	if err := d.mgr.SendAll(ctx, msg); err != nil {
		return fmt.Errorf("notify winner: %w", err)
	}

	// 管理员内部通报
	admins, err := model.ListAdmins(ctx, d.db)
	if err != nil {
		logger.Warn("notify: list admins failed", zap.Error(err))
	} else {
		d.notifyStaff(ctx, admins, &Message{
			Kind:  model.NotifyKindDrawInternal,
			Title: "开奖完成",
			Body: fmt.Sprintf("活动「%s」已开奖（%s），中奖号码 %d。",
				evt.RaffleTitle, evt.DrawType, evt.ParticipantNumber),
		})
	}

	d.publishFeed(model.TopicWinnerSelected, payload)
	return nil
}

// RaffleCreatedEvent 新活动事件载荷
type RaffleCreatedEvent struct {
	RaffleID int64  `json:"raffle_id"`
	Title    string `json:"title"`
}

// onRaffleCreated 新活动广播：按页拉取订阅用户写站内信，事件进公共流
func (d *Dispatcher) onRaffleCreated(ctx context.Context, payload []byte) error {
	var evt RaffleCreatedEvent
	if err := common.JsonUnmarshal(payload, &evt); err != nil {
		logger.Warn("notify: bad raffle_created payload", zap.Error(err))
		return nil
	}

	const pageSize = 500
	offset := 0
	for {
		users, err := model.ListOptedInUsers(ctx, d.db, pageSize, offset)
		if err != nil {
			return fmt.Errorf("list opted-in users: %w", err)
		}
		for i := range users {
			m := &Message{
				UserID: users[i].ID,
				Kind:   model.NotifyKindRaffleNew,
				Title:  "新活动上线",
				Body:   fmt.Sprintf("活动「%s」开始报名啦，快来参与！", evt.Title),
			}
			// 广播只走站内信兜底链，单个失败不阻断整批
			if err := d.mgr.Send(ctx, m); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if len(users) < pageSize {
			break
		}
		offset += pageSize
	}

	d.publishFeed(model.TopicRaffleCreated, payload)
	return nil
}

// ParticipantRegisteredEvent 报名事件载荷
type ParticipantRegisteredEvent struct {
	RaffleID          int64  `json:"raffle_id"`
	RaffleTitle       string `json:"raffle_title"`
	UserID            int64  `json:"user_id"`
	ParticipantNumber int    `json:"participant_number"`
}

// onParticipantRegistered 报名确认，附参与号码
func (d *Dispatcher) onParticipantRegistered(ctx context.Context, payload []byte) error {
	var evt ParticipantRegisteredEvent
	if err := common.JsonUnmarshal(payload, &evt); err != nil {
		logger.Warn("notify: bad registered payload", zap.Error(err))
		return nil
	}

	u, err := model.GetUserByID(ctx, d.db, evt.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", evt.UserID, err)
	}
	return d.mgr.Send(ctx, &Message{
		UserID: u.ID,
		Email:  u.Email,
		Kind:   model.NotifyKindRegistered,
		Title:  "报名成功",
		Body: fmt.Sprintf("您已成功报名活动「%s」，参与号码为 %d。",
			evt.RaffleTitle, evt.ParticipantNumber),
	})
}

// AccountCreatedEvent 注册事件载荷
type AccountCreatedEvent struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// onAccountCreated 注册欢迎信
func (d *Dispatcher) onAccountCreated(ctx context.Context, payload []byte) error {
	var evt AccountCreatedEvent
	if err := common.JsonUnmarshal(payload, &evt); err != nil {
		logger.Warn("notify: bad account_created payload", zap.Error(err))
		return nil
	}
	return d.mgr.Send(ctx, &Message{
		UserID: evt.UserID,
		Email:  evt.Email,
		Kind:   model.NotifyKindWelcome,
		Title:  "欢迎加入",
		Body:   fmt.Sprintf("%s，欢迎注册，快去看看正在进行的抽奖活动吧！", evt.Username),
	})
}

// PasswordResetEvent 密码重置事件载荷
type PasswordResetEvent struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// onPasswordReset 重置邮件必须送达邮箱，不落站内信
func (d *Dispatcher) onPasswordReset(ctx context.Context, payload []byte) error {
	var evt PasswordResetEvent
	if err := common.JsonUnmarshal(payload, &evt); err != nil {
		logger.Warn("notify: bad password_reset payload", zap.Error(err))
		return nil
	}
	email := NewEmailChannel()
	if !email.Available() {
		// SMTP 未配置时无法投递，保留事件等待重试
		return ErrChannelUnavailable
	}
	return email.Send(ctx, &Message{
		Email: evt.Email,
		Kind:  "password_reset",
		Title: "密码重置",
		Body:  fmt.Sprintf("请使用以下令牌重置密码（有效期至过期即失效）：%s", evt.Token),
	})
}

// notifyStaff 批量内部通报，批次间加随机间隔打散投递峰值
func (d *Dispatcher) notifyStaff(ctx context.Context, staff []model.User, tmpl *Message) {
	gap := 200
	if cfg := config.Get(); cfg != nil && cfg.Notify.StaffBatchGap > 0 {
		gap = cfg.Notify.StaffBatchGap
	}
	for i := range staff {
		if i > 0 {
			jitter := time.Duration(gap/2+rand.Intn(gap)) * time.Millisecond
			select {
			case <-ctx.Done():
				return
			case <-time.After(jitter):
			}
		}
		m := *tmpl
		m.UserID = staff[i].ID
		m.Email = staff[i].Email
		if err := d.mgr.Send(ctx, &m); err != nil {
			logger.Warn("notify: staff send failed",
				zap.Int64("user_id", staff[i].ID), zap.Error(err))
		}
	}
}

// publishFeed 事件进公共事件流（RocketMQ），未启用时静默跳过
func (d *Dispatcher) publishFeed(topic string, payload []byte) {
	if !infmq.Enabled() {
		return
	}
	feed := infmq.FeedTopic()
	if feed == "" {
		return
	}
	body, err := common.JsonMarshal(map[string]interface{}{
		"event":   topic,
		"payload": string(payload),
		"ts":      time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	if err := infmq.PublisherInstance().Publish(feed, body); err != nil {
		logger.Warn("notify: publish feed failed", zap.String("event", topic), zap.Error(err))
	}
}
