package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Raffle 对应 raffles 表
// status: 1=draft 2=active 3=scheduled 4=completed 5=cancelled
// is_drawn: 0=未开奖 1=已开奖
// 不变式：is_drawn=1 当且仅当 status=4 且 winner_participation_id 非空，
// 由 UpdateDrawResult 单条语句保证（三个字段同语句写入）。
type Raffle struct {
	ID                    int64         `db:"id"`
	Title                 string        `db:"title"`
	Description           string        `db:"description"`
	CoverImage            string        `db:"cover_image"`
	Status                int8          `db:"status"`
	ParticipationStart    int64         `db:"participation_start"` // 毫秒时间戳，0=不限
	ParticipationEnd      int64         `db:"participation_end"`   // 毫秒时间戳，0=不限
	ScheduledDrawTime     int64         `db:"scheduled_draw_time"` // 毫秒时间戳，0=未排期
	IsDrawn               int8          `db:"is_drawn"`
	WinnerParticipationID sql.NullInt64 `db:"winner_participation_id"`
	DrawnAt               int64         `db:"drawn_at"`
	DrawnBy               string        `db:"drawn_by"` // 操作者标识，定时/自动开奖为 "system"
	CreatedBy             int64         `db:"created_by"`
	CreatedAt             int64         `db:"created_at"`
	UpdatedAt             int64         `db:"updated_at"`
}

const raffleColumns = `id, title, description, cover_image, status,
	participation_start, participation_end, scheduled_draw_time,
	is_drawn, winner_participation_id, drawn_at, drawn_by, created_by, created_at, updated_at`

// Insert 创建活动（status 由调用方设定，通常为 1=draft）
func (r *Raffle) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	now := time.Now().UnixMilli()
	r.CreatedAt = now
	r.UpdatedAt = now

	sqlStr := `INSERT INTO raffles (title, description, cover_image, status, participation_start,
		participation_end, scheduled_draw_time, is_drawn, drawn_by, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, '', ?, ?, ?)`
	res, err := exec.ExecContext(ctx, sqlStr,
		r.Title, r.Description, r.CoverImage, r.Status, r.ParticipationStart,
		r.ParticipationEnd, r.ScheduledDrawTime, r.CreatedBy, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ID = id
	return nil
}

// GetRaffle 按ID查询（不加锁）
func GetRaffle(ctx context.Context, exec sqlx.ExtContext, raffleID int64) (*Raffle, error) {
	sqlStr := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = ?`
	var r Raffle
	if err := sqlx.GetContext(ctx, exec, &r, sqlStr, raffleID); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRaffleForUpdate 按ID加锁查询。开奖与报名的"检查-写入"序列
// 都必须先拿到这把行锁，以串行化并发开奖和满员临界的并发报名。
func GetRaffleForUpdate(ctx context.Context, exec sqlx.ExtContext, raffleID int64) (*Raffle, error) {
	sqlStr := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = ? FOR UPDATE`
	var r Raffle
	if err := sqlx.GetContext(ctx, exec, &r, sqlStr, raffleID); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateDrawResult 写入开奖结果：winner/drawn_at/drawn_by/status=4/is_drawn=1 一条语句完成
func UpdateDrawResult(ctx context.Context, exec sqlx.ExtContext, raffleID, winnerParticipationID int64, drawnBy string) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE raffles SET winner_participation_id = ?, drawn_at = ?, drawn_by = ?,
		status = 4, is_drawn = 1, updated_at = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, winnerParticipationID, now, drawnBy, now, raffleID)
	return err
}

// UpdateStatus 更新活动状态
func UpdateStatus(ctx context.Context, exec sqlx.ExtContext, raffleID int64, newStatus int8) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE raffles SET status = ?, updated_at = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, newStatus, now, raffleID)
	return err
}

// UpdateScheduledDraw 设置定时开奖时间
func UpdateScheduledDraw(ctx context.Context, exec sqlx.ExtContext, raffleID, drawTimeMs int64) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE raffles SET scheduled_draw_time = ?, updated_at = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, drawTimeMs, now, raffleID)
	return err
}

// UpdateInfo 更新活动基础信息（标题/描述/封面/报名窗口）
func UpdateInfo(ctx context.Context, exec sqlx.ExtContext, r *Raffle) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE raffles SET title = ?, description = ?, cover_image = ?,
		participation_start = ?, participation_end = ?, updated_at = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr,
		r.Title, r.Description, r.CoverImage, r.ParticipationStart, r.ParticipationEnd, now, r.ID)
	return err
}

// DueForDraw 判断活动是否已到定时开奖时点，口径与 ListDueForDraw 的查询一致。
// 排期时间本身即为定时开奖授权，不依赖其他配置项。
func DueForDraw(r *Raffle, nowMs int64) bool {
	if r.IsDrawn != 0 {
		return false
	}
	if r.Status != 2 && r.Status != 3 {
		return false
	}
	return r.ScheduledDrawTime > 0 && r.ScheduledDrawTime <= nowMs
}

// ListDueForDraw 查询已到定时开奖时间且未开奖的活动（定时扫描用）
func ListDueForDraw(ctx context.Context, exec sqlx.ExtContext, nowMs int64, limit int) ([]Raffle, error) {
	sqlStr := `SELECT ` + raffleColumns + ` FROM raffles
		WHERE status IN (2, 3) AND is_drawn = 0 AND scheduled_draw_time > 0 AND scheduled_draw_time <= ?
		ORDER BY scheduled_draw_time ASC LIMIT ?`
	var list []Raffle
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, nowMs, limit); err != nil {
		return nil, err
	}
	return list, nil
}

// RaffleSnapshot 公共查询接口所需的最小字段集合
type RaffleSnapshot struct {
	ID                 int64  `db:"id"`
	Title              string `db:"title"`
	Status             int8   `db:"status"`
	ParticipationStart int64  `db:"participation_start"`
	ParticipationEnd   int64  `db:"participation_end"`
	ScheduledDrawTime  int64  `db:"scheduled_draw_time"`
	IsDrawn            int8   `db:"is_drawn"`
}

// GetRaffleSnapshot 无锁读取快照（列表/详情页）
func GetRaffleSnapshot(ctx context.Context, exec sqlx.ExtContext, raffleID int64) (*RaffleSnapshot, error) {
	sqlStr := `SELECT id, title, status, participation_start, participation_end,
		scheduled_draw_time, is_drawn FROM raffles WHERE id = ?`
	var rs RaffleSnapshot
	if err := sqlx.GetContext(ctx, exec, &rs, sqlStr, raffleID); err != nil {
		return nil, err
	}
	return &rs, nil
}
