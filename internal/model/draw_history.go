package model

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// DrawHistory 对应 draw_history 表，开奖审计记录
// raffle_id 唯一键：即使业务层校验被绕过，第二次开奖也会在这里撞键失败
// draw_type: manual / scheduled / auto（满员触发）
// seed 为审计用随机序列标识，不参与结果复算
type DrawHistory struct {
	ID                    int64  `db:"id"`
	RaffleID              int64  `db:"raffle_id"`
	WinnerParticipationID int64  `db:"winner_participation_id"`
	ExecutedBy            string `db:"executed_by"`
	DrawType              string `db:"draw_type"`
	Seed                  string `db:"seed"`
	ParticipantsCount     int    `db:"participants_count"`
	CreatedAt             int64  `db:"created_at"`
}

// Insert 写入开奖审计，与开奖结果在同一事务内
func (h *DrawHistory) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	h.CreatedAt = time.Now().UnixMilli()
	sqlStr := `INSERT INTO draw_history (raffle_id, winner_participation_id, executed_by,
		draw_type, seed, participants_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := exec.ExecContext(ctx, sqlStr,
		h.RaffleID, h.WinnerParticipationID, h.ExecutedBy, h.DrawType, h.Seed, h.ParticipantsCount, h.CreatedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	h.ID = id
	return nil
}

// GetDrawHistory 按活动ID查询开奖记录
func GetDrawHistory(ctx context.Context, exec sqlx.ExtContext, raffleID int64) (*DrawHistory, error) {
	sqlStr := `SELECT id, raffle_id, winner_participation_id, executed_by, draw_type, seed,
		participants_count, created_at FROM draw_history WHERE raffle_id = ?`
	var h DrawHistory
	if err := sqlx.GetContext(ctx, exec, &h, sqlStr, raffleID); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListDrawHistory 倒序分页查询开奖记录（后台审计页）
func ListDrawHistory(ctx context.Context, exec sqlx.ExtContext, limit, offset int) ([]DrawHistory, error) {
	sqlStr := `SELECT id, raffle_id, winner_participation_id, executed_by, draw_type, seed,
		participants_count, created_at FROM draw_history ORDER BY id DESC LIMIT ? OFFSET ?`
	var list []DrawHistory
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, limit, offset); err != nil {
		return nil, err
	}
	return list, nil
}
