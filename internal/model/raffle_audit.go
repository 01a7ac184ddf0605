package model

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// RaffleAudit 对应 raffle_audit 表（状态机审计）
// event 采用字符串枚举（activate/schedule/complete_draw/cancel）
// prev_state/next_state 使用字符串快照，便于直观查询
type RaffleAudit struct {
	ID int64 `db:"id"`
	// 活动ID
	RaffleID int64 `db:"raffle_id"`
	// 状态机事件
	Event     string `db:"event"`
	PrevState string `db:"prev_state"`
	NextState string `db:"next_state"`
	Operator  string `db:"operator"`
	Source    string `db:"source"`
	Payload   string `db:"payload"`
	TraceID   string `db:"trace_id"`
	CreatedAt int64  `db:"created_at"`
}

// Insert
func (a *RaffleAudit) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	now := time.Now().UnixMilli()

	sqlStr := "INSERT INTO raffle_audit (raffle_id, event, prev_state, next_state, operator, source, payload, trace_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	args := []interface{}{a.RaffleID, a.Event, a.PrevState, a.NextState, a.Operator, a.Source, a.Payload, a.TraceID, now}

	_, err := exec.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListRaffleAudit 按活动倒序查询审计记录
func ListRaffleAudit(ctx context.Context, exec sqlx.ExtContext, raffleID int64, limit int) ([]RaffleAudit, error) {
	sqlStr := `SELECT id, raffle_id, event, prev_state, next_state, operator, source, payload,
		trace_id, created_at FROM raffle_audit WHERE raffle_id = ? ORDER BY id DESC LIMIT ?`
	var list []RaffleAudit
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, raffleID, limit); err != nil {
		return nil, err
	}
	return list, nil
}
