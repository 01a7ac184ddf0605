package notify

import (
	"context"

	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"
)

// InAppChannel 站内信渠道，直接写 notifications 表
type InAppChannel struct{}

func NewInAppChannel() *InAppChannel { return &InAppChannel{} }

func (c *InAppChannel) Name() string { return "inapp" }

func (c *InAppChannel) Available() bool { return infmysql.DB() != nil }

func (c *InAppChannel) Send(ctx context.Context, msg *Message) error {
	if msg.UserID <= 0 {
		return ErrNoRecipient
	}
	n := &model.Notification{
		UserID: msg.UserID,
		Kind:   msg.Kind,
		Title:  msg.Title,
		Body:   msg.Body,
	}
	return n.Insert(ctx, infmysql.SQLX())
}
