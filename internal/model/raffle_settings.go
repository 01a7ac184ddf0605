package model

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// RaffleSettings 对应 raffle_settings 表，与 raffles 一对一
// max_participants: 0=不限人数
// receipt_required: 1=报名必须上传凭证
// allow_multiple_entries: 1=同一用户可重复报名（每次报名领取新号码）
type RaffleSettings struct {
	ID                   int64 `db:"id"`
	RaffleID             int64 `db:"raffle_id"`
	MaxParticipants      int   `db:"max_participants"`
	ReceiptRequired      int8  `db:"receipt_required"`
	AllowMultipleEntries int8  `db:"allow_multiple_entries"`
	AutoDrawOnFull       int8  `db:"auto_draw_on_full"` // 1=报名满员后立即自动开奖
	PublicFeed           int8  `db:"public_feed"`
	NotifyOnRegister     int8  `db:"notify_on_register"`
	CreatedAt            int64 `db:"created_at"`
	UpdatedAt            int64 `db:"updated_at"`
}

// InsertDefaultSettings 创建活动时写入默认配置（与创建在同一事务内）
func InsertDefaultSettings(ctx context.Context, exec sqlx.ExtContext, raffleID int64) error {
	now := time.Now().UnixMilli()
	sqlStr := `INSERT INTO raffle_settings (raffle_id, max_participants, receipt_required,
		allow_multiple_entries, auto_draw_on_full, public_feed, notify_on_register, created_at, updated_at)
		VALUES (?, 0, 1, 0, 0, 1, 1, ?, ?)`
	_, err := exec.ExecContext(ctx, sqlStr, raffleID, now, now)
	return err
}

// GetSettings 按活动ID查询配置
func GetSettings(ctx context.Context, exec sqlx.ExtContext, raffleID int64) (*RaffleSettings, error) {
	sqlStr := `SELECT id, raffle_id, max_participants, receipt_required, allow_multiple_entries,
		auto_draw_on_full, public_feed, notify_on_register, created_at, updated_at
		FROM raffle_settings WHERE raffle_id = ?`
	var s RaffleSettings
	if err := sqlx.GetContext(ctx, exec, &s, sqlStr, raffleID); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings 全量更新活动配置
func UpdateSettings(ctx context.Context, exec sqlx.ExtContext, s *RaffleSettings) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE raffle_settings SET max_participants = ?, receipt_required = ?,
		allow_multiple_entries = ?, auto_draw_on_full = ?, public_feed = ?, notify_on_register = ?,
		updated_at = ? WHERE raffle_id = ?`
	_, err := exec.ExecContext(ctx, sqlStr,
		s.MaxParticipants, s.ReceiptRequired, s.AllowMultipleEntries, s.AutoDrawOnFull,
		s.PublicFeed, s.NotifyOnRegister, now, s.RaffleID)
	return err
}
