package model

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// 用户角色
const (
	RoleUser  int8 = 1
	RoleAdmin int8 = 2
)

// 用户状态
const (
	UserStatusNormal   int8 = 1
	UserStatusDisabled int8 = 2
)

// User 对应 users 表
// provider/provider_user_id 记录第三方登录来源，本站注册两者为空
type User struct {
	ID             int64  `db:"id"`
	Username       string `db:"username"`
	Email          string `db:"email"`
	PasswordHash   string `db:"password_hash"`
	Role           int8   `db:"role"`
	Status         int8   `db:"status"`
	NotifyOptIn    int8   `db:"notify_opt_in"` // 1=接收活动通知
	Provider       string `db:"provider"`
	ProviderUserID string `db:"provider_user_id"`
	CreatedAt      int64  `db:"created_at"`
	UpdatedAt      int64  `db:"updated_at"`
}

const userColumns = `id, username, email, password_hash, role, status, notify_opt_in,
	provider, provider_user_id, created_at, updated_at`

// Insert 创建用户
func (u *User) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	now := time.Now().UnixMilli()
	u.CreatedAt = now
	u.UpdatedAt = now
	sqlStr := `INSERT INTO users (username, email, password_hash, role, status, notify_opt_in,
		provider, provider_user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := exec.ExecContext(ctx, sqlStr,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Status, u.NotifyOptIn,
		u.Provider, u.ProviderUserID, now, now)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	u.ID = id
	return nil
}

// GetUserByID 按ID查询用户
func GetUserByID(ctx context.Context, exec sqlx.ExtContext, userID int64) (*User, error) {
	sqlStr := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	var u User
	if err := sqlx.GetContext(ctx, exec, &u, sqlStr, userID); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail 按邮箱查询用户
func GetUserByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*User, error) {
	sqlStr := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	var u User
	if err := sqlx.GetContext(ctx, exec, &u, sqlStr, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByProvider 按第三方身份查询用户
func GetUserByProvider(ctx context.Context, exec sqlx.ExtContext, provider, providerUserID string) (*User, error) {
	sqlStr := `SELECT ` + userColumns + ` FROM users WHERE provider = ? AND provider_user_id = ?`
	var u User
	if err := sqlx.GetContext(ctx, exec, &u, sqlStr, provider, providerUserID); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePasswordHash 更新密码哈希
func UpdatePasswordHash(ctx context.Context, exec sqlx.ExtContext, userID int64, hash string) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, hash, now, userID)
	return err
}

// UpdateNotifyOptIn 更新通知订阅开关
func UpdateNotifyOptIn(ctx context.Context, exec sqlx.ExtContext, userID int64, optIn int8) error {
	now := time.Now().UnixMilli()
	sqlStr := `UPDATE users SET notify_opt_in = ?, updated_at = ? WHERE id = ?`
	_, err := exec.ExecContext(ctx, sqlStr, optIn, now, userID)
	return err
}

// ListAdmins 查询全部正常状态的管理员（开奖结果内部通知用）
func ListAdmins(ctx context.Context, exec sqlx.ExtContext) ([]User, error) {
	sqlStr := `SELECT ` + userColumns + ` FROM users WHERE role = ? AND status = ?`
	var list []User
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, RoleAdmin, UserStatusNormal); err != nil {
		return nil, err
	}
	return list, nil
}

// ListOptedInUsers 查询订阅了通知的正常用户（新活动广播用）
func ListOptedInUsers(ctx context.Context, exec sqlx.ExtContext, limit, offset int) ([]User, error) {
	sqlStr := `SELECT ` + userColumns + ` FROM users
		WHERE notify_opt_in = 1 AND status = ? ORDER BY id ASC LIMIT ? OFFSET ?`
	var list []User
	if err := sqlx.SelectContext(ctx, exec, &list, sqlStr, UserStatusNormal, limit, offset); err != nil {
		return nil, err
	}
	return list, nil
}
