package notify

import (
	"context"

	"roulette-server/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailChannel SMTP 邮件渠道，基于配置中心的 SMTP 段
type EmailChannel struct{}

func NewEmailChannel() *EmailChannel { return &EmailChannel{} }

func (e *EmailChannel) Name() string { return "email" }

// Available SMTP 未配置时返回 false，管理器会降级到下一渠道
func (e *EmailChannel) Available() bool {
	cfg := config.Get()
	return cfg != nil && cfg.SMTP.Host != "" && cfg.SMTP.From != ""
}

func (e *EmailChannel) Send(ctx context.Context, msg *Message) error {
	if !e.Available() {
		return ErrChannelUnavailable
	}
	if msg.Email == "" {
		return ErrNoRecipient
	}
	cfg := config.Get()

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.SMTP.From)
	m.SetHeader("To", msg.Email)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/html", msg.Body)

	d := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)

	// gomail 不支持 context，投递在独立 goroutine 中完成以尊重取消
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
