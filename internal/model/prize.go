package model

import (
	"context"
	"time"

	"roulette-server/common/helper"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Prize 对应 prizes 表，一个活动可挂多个奖品
// value 为奖品参考价值，decimal 字符串入库避免浮点误差
type Prize struct {
	ID           int64  `db:"id"`
	RaffleID     int64  `db:"raffle_id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	Image        string `db:"image"`
	Value        string `db:"value"` // decimal(12,2) 字符串
	Stock        int    `db:"stock"`
	DisplayOrder int    `db:"display_order"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

// NormalizeValue 规整价值字段为两位小数，非法输入归零
func (p *Prize) NormalizeValue() {
	d, err := decimal.NewFromString(p.Value)
	if err != nil || d.IsNegative() {
		p.Value = "0.00"
		return
	}
	p.Value = helper.TrimDecimal(d)
}

// Insert 新增奖品
func (p *Prize) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	now := time.Now().UnixMilli()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.NormalizeValue()

	sqlStr := `INSERT INTO prizes (raffle_id, name, description, image, value, stock,
		display_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := exec.ExecContext(ctx, sqlStr,
		p.RaffleID, p.Name, p.Description, p.Image, p.Value, p.Stock, p.DisplayOrder, now, now)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	p.ID = id
	return nil
}

// ListPrizes 按展示顺序查询活动奖品
func ListPrizes(ctx context.Context, exec sqlx.ExtContext, raffleID int64) ([]Prize, error) {
	sqlStr := `SELECT id, raffle_id, name, description, image, value, stock, display_order,
		created_at, updated_at FROM prizes WHERE raffle_id = ? ORDER BY display_order ASC, id ASC`
	var list []Prize
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, raffleID); err != nil {
		return nil, err
	}
	return list, nil
}

// GetPrize 按ID查询奖品
func GetPrize(ctx context.Context, exec sqlx.ExtContext, prizeID int64) (*Prize, error) {
	sqlStr := `SELECT id, raffle_id, name, description, image, value, stock, display_order,
		created_at, updated_at FROM prizes WHERE id = ?`
	var p Prize
	if err := sqlx.GetContext(ctx, exec, &p, sqlStr, prizeID); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePrize 更新奖品信息
func UpdatePrize(ctx context.Context, exec sqlx.ExtContext, p *Prize) error {
	now := time.Now().UnixMilli()
	p.NormalizeValue()
	sqlStr := `UPDATE prizes SET name = ?, description = ?, image = ?, value = ?, stock = ?,
		display_order = ?, updated_at = ? WHERE id = ? AND raffle_id = ?`
	_, err := exec.ExecContext(ctx, sqlStr,
		p.Name, p.Description, p.Image, p.Value, p.Stock, p.DisplayOrder, now, p.ID, p.RaffleID)
	return err
}

// DeletePrize 删除奖品，raffle_id 一并校验避免跨活动误删
func DeletePrize(ctx context.Context, exec sqlx.ExtContext, raffleID, prizeID int64) error {
	sqlStr := `DELETE FROM prizes WHERE id = ? AND raffle_id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, prizeID, raffleID)
	return err
}
