package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Participation 对应 participations 表，报名台账
// participant_number 为活动内单调递增号码，从1开始；(raffle_id, participant_number) 唯一，
// 重复分配会触发唯一键冲突而非静默覆盖。同一用户可否重复报名由
// raffle_settings.allow_multiple_entries 决定，去重在行锁事务内校验，不依赖唯一键。
type Participation struct {
	ID                int64         `db:"id"`
	RaffleID          int64         `db:"raffle_id"`
	UserID            int64         `db:"user_id"`
	ParticipantNumber int           `db:"participant_number"`
	ReceiptPath       string        `db:"receipt_path"`
	IsWinner          int8          `db:"is_winner"`
	WonPrizeID        sql.NullInt64 `db:"won_prize_id"`
	WonAt             int64         `db:"won_at"`
	CreatedAt         int64         `db:"created_at"`
}

const participationColumns = `id, raffle_id, user_id, participant_number, receipt_path,
	is_winner, won_prize_id, won_at, created_at`

// Insert 写入报名记录。号码分配依赖调用方先持有 raffles 行锁，
// 否则并发下 MaxParticipantNumber+1 会撞唯一键。
func (p *Participation) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	p.CreatedAt = time.Now().UnixMilli()
	sqlStr := `INSERT INTO participations (raffle_id, user_id, participant_number,
		receipt_path, is_winner, won_at, created_at) VALUES (?, ?, ?, ?, 0, 0, ?)`
	res, err := exec.ExecContext(ctx, sqlStr,
		p.RaffleID, p.UserID, p.ParticipantNumber, p.ReceiptPath, p.CreatedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	p.ID = id
	return nil
}

// CountParticipations 统计活动报名数。满员校验必须在持有 raffles 行锁的事务内调用。
func CountParticipations(ctx context.Context, exec sqlx.ExtContext, raffleID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, exec, &n,
		`SELECT COUNT(*) FROM participations WHERE raffle_id = ?`, raffleID)
	return n, err
}

// MaxParticipantNumber 查询活动当前最大号码，无报名时返回0
func MaxParticipantNumber(ctx context.Context, exec sqlx.ExtContext, raffleID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, exec, &n,
		`SELECT COALESCE(MAX(participant_number), 0) FROM participations WHERE raffle_id = ?`, raffleID)
	return n, err
}

// ExistsParticipation 用户是否已报名该活动
func ExistsParticipation(ctx context.Context, exec sqlx.ExtContext, raffleID, userID int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, exec, &n,
		`SELECT COUNT(*) FROM participations WHERE raffle_id = ? AND user_id = ?`, raffleID, userID)
	return n > 0, err
}

// GetParticipation 按ID查询报名记录
func GetParticipation(ctx context.Context, exec sqlx.ExtContext, participationID int64) (*Participation, error) {
	sqlStr := `SELECT ` + participationColumns + ` FROM participations WHERE id = ?`
	var p Participation
	if err := sqlx.GetContext(ctx, exec, &p, sqlStr, participationID); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParticipations 按号码升序查询活动全部报名。开奖抽取走这里，
// 顺序必须稳定，否则同一随机下标会落到不同记录上。
func ListParticipations(ctx context.Context, exec sqlx.ExtContext, raffleID int64) ([]Participation, error) {
	sqlStr := `SELECT ` + participationColumns + ` FROM participations
		WHERE raffle_id = ? ORDER BY participant_number ASC`
	var list []Participation
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, raffleID); err != nil {
		return nil, err
	}
	return list, nil
}

// ListParticipationsByUser 查询用户全部报名记录（个人中心）
func ListParticipationsByUser(ctx context.Context, exec sqlx.ExtContext, userID int64, limit, offset int) ([]Participation, error) {
	sqlStr := `SELECT ` + participationColumns + ` FROM participations
		WHERE user_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`
	var list []Participation
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, userID, limit, offset); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkWinner 标记中奖记录
func MarkWinner(ctx context.Context, exec sqlx.ExtContext, participationID int64) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE participations SET is_winner = 1, won_at = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, now, participationID)
	return err
}

// AssignPrize 中奖记录绑定具体奖品（开奖后人工操作）
func AssignPrize(ctx context.Context, exec sqlx.ExtContext, participationID, prizeID int64) error {
	sqlStr := `UPDATE participations SET won_prize_id = ? WHERE id = ? AND is_winner = 1`
	res, err := exec.ExecContext(ctx, sqlStr, prizeID, participationID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateReceipt 补传/替换报名凭证
func UpdateReceipt(ctx context.Context, exec sqlx.ExtContext, participationID int64, receiptPath string) error {
	sqlStr := `UPDATE participations SET receipt_path = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, receiptPath, participationID)
	return err
}
