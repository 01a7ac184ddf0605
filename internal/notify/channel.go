package notify

import (
	"context"
	"errors"
)

// Message 一次通知投递的载体
// Email 可为空（仅站内信时），UserID 为 0 表示无站内信落点（如密码重置给未登录用户）
type Message struct {
	UserID int64
	Email  string
	Kind   string
	Title  string
	Body   string
}

// Channel 通知渠道抽象
// Available 返回 false 时管理器直接跳过该渠道（如 SMTP 未配置）
type Channel interface {
	Name() string
	Available() bool
	Send(ctx context.Context, msg *Message) error
}

var (
	// ErrChannelUnavailable 渠道不可用（未配置或依赖缺失）
	ErrChannelUnavailable = errors.New("notify channel unavailable")
	// ErrAllChannelsFailed 所有渠道均投递失败
	ErrAllChannelsFailed = errors.New("all notify channels failed")
	// ErrNoRecipient 消息缺少该渠道所需的收件方信息
	ErrNoRecipient = errors.New("message has no recipient for channel")
)
