package model

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// PasswordReset 对应 password_resets 表
// token 为一次性重置令牌，used=1 或过期后不可再用
type PasswordReset struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Token     string `db:"token"`
	ExpiresAt int64  `db:"expires_at"` // 毫秒时间戳
	Used      int8   `db:"used"`
	CreatedAt int64  `db:"created_at"`
}

// Insert 写入重置令牌
func (p *PasswordReset) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	p.CreatedAt = time.Now().UnixMilli()
	sqlStr := `INSERT INTO password_resets (user_id, token, expires_at, used, created_at)
		VALUES (?, ?, ?, 0, ?)`
	res, err := exec.ExecContext(ctx, sqlStr, p.UserID, p.Token, p.ExpiresAt, p.CreatedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	p.ID = id
	return nil
}

// GetValidReset 查询未使用且未过期的令牌
func GetValidReset(ctx context.Context, exec sqlx.ExtContext, token string, nowMs int64) (*PasswordReset, error) {
	sqlStr := `SELECT id, user_id, token, expires_at, used, created_at
		FROM password_resets WHERE token = ? AND used = 0 AND expires_at > ?`
	var p PasswordReset
	if err := sqlx.GetContext(ctx, exec, &p, sqlStr, token, nowMs); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkResetUsed 令牌置为已使用
func MarkResetUsed(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	_, err := exec.ExecContext(ctx, `UPDATE password_resets SET used = 1 WHERE id = ?`, id)
	return err
}
