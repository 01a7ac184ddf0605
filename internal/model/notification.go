package model

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// 站内通知类型
const (
	NotifyKindWinner       = "winner"
	NotifyKindRaffleNew    = "raffle_new"
	NotifyKindRegistered   = "registered"
	NotifyKindDrawInternal = "draw_internal"
	NotifyKindWelcome      = "welcome"
)

// Notification 对应 notifications 表，站内信
type Notification struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Kind      string `db:"kind"`
	Title     string `db:"title"`
	Body      string `db:"body"`
	IsRead    int8   `db:"is_read"`
	CreatedAt int64  `db:"created_at"`
}

// Insert 写入站内信
func (n *Notification) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	n.CreatedAt = time.Now().UnixMilli()
	sqlStr := `INSERT INTO notifications (user_id, kind, title, body, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`
	res, err := exec.ExecContext(ctx, sqlStr, n.UserID, n.Kind, n.Title, n.Body, n.CreatedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	n.ID = id
	return nil
}

// ListNotifications 倒序分页查询用户站内信
func ListNotifications(ctx context.Context, exec sqlx.ExtContext, userID int64, limit, offset int) ([]Notification, error) {
	sqlStr := `SELECT id, user_id, kind, title, body, is_read, created_at
		FROM notifications WHERE user_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`
	var list []Notification
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, userID, limit, offset); err != nil {
		return nil, err
	}
	return list, nil
}

// CountUnread 未读数
func CountUnread(ctx context.Context, exec sqlx.ExtContext, userID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, exec, &n,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID)
	return n, err
}

// MarkNotificationRead 单条已读，user_id 一并校验避免越权
func MarkNotificationRead(ctx context.Context, exec sqlx.ExtContext, userID, notificationID int64) error {
	_, err := exec.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, notificationID, userID)
	return err
}

// MarkAllRead 全部已读
func MarkAllRead(ctx context.Context, exec sqlx.ExtContext, userID int64) error {
	_, err := exec.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	return err
}
