package service

import (
	"context"
	"strconv"
	"time"

	"roulette-server/common"
	"roulette-server/common/helper"
	"roulette-server/internal/auth"
	"roulette-server/internal/config"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// RegisterAccountInput 注册入参
type RegisterAccountInput struct {
	Username   string
	Email      string
	Password   string
	CaptchaID  string
	CaptchaVal string
	TraceID    string
}

// LoginOutput 登录结果
type LoginOutput struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Role         int8   `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AccountService interface {
	Register(ctx context.Context, in RegisterAccountInput) (*LoginOutput, error)
	Login(ctx context.Context, email, password string) (*LoginOutput, error)
	SocialLogin(ctx context.Context, provider, accessToken string) (*LoginOutput, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginOutput, error)
	RequestPasswordReset(ctx context.Context, email, traceID string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type accountService struct{}

func NewAccountService() AccountService { return &accountService{} }

const (
	minPasswordLen = 8
	resetTokenTTL  = 30 * time.Minute
)

// Register 注册主流程：验证码 → 密码哈希 → 用户落库 → 欢迎通知事件
func (s *accountService) Register(ctx context.Context, in RegisterAccountInput) (*LoginOutput, error) {
	email := helper.NormalizeEmail(in.Email)
	if in.Username == "" || email == "" || len(in.Password) < minPasswordLen {
		return nil, ErrBadRequest
	}

	if cfg := config.Get(); cfg != nil && cfg.Auth.Captcha.Enabled {
		if !auth.VerifyCaptcha(in.CaptchaID, in.CaptchaVal) {
			return nil, ErrCaptchaMismatch
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	u := &model.User{
		Username:     in.Username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Status:       model.UserStatusNormal,
		NotifyOptIn:  1,
	}
	if err := u.Insert(ctx, tx); err != nil {
		// email 唯一键
		if isMySQLDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// 欢迎通知事件
	if err := model.CreateOutbox(ctx, tx, model.TopicAccountCreated, strconv.FormatInt(u.ID, 10), map[string]any{
		"user_id":  u.ID,
		"email":    u.Email,
		"username": u.Username,
		"trace_id": in.TraceID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	common.Printf("account registered: id=%d email=%s\n", u.ID, u.Email)
	return issueTokens(u)
}

// Login 邮箱+密码登录
// 用户不存在与密码错误返回同一错误，避免枚举邮箱
func (s *accountService) Login(ctx context.Context, email, password string) (*LoginOutput, error) {
	email = helper.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrBadRequest
	}

	u, err := model.GetUserByEmail(ctx, infmysql.SQLX(), email)
	if err != nil {
		if isNoRowsError(err) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if u.Status != model.UserStatusNormal {
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return issueTokens(u)
}

// SocialLogin 第三方登录：验证令牌 → 按第三方身份找用户，不存在则按邮箱合并或新建
func (s *accountService) SocialLogin(ctx context.Context, provider, accessToken string) (*LoginOutput, error) {
	ident, err := auth.VerifySocialToken(provider, accessToken)
	if err != nil {
		return nil, err
	}

	db := infmysql.SQLX()
	u, err := model.GetUserByProvider(ctx, db, ident.Provider, ident.ProviderUserID)
	if err == nil {
		if u.Status != model.UserStatusNormal {
			return nil, ErrAccountDisabled
		}
		return issueTokens(u)
	}
	if !isNoRowsError(err) {
		return nil, err
	}

	// 同邮箱已有本站账号则直接合并登录
	if u, err = model.GetUserByEmail(ctx, db, ident.Email); err == nil {
		if u.Status != model.UserStatusNormal {
			return nil, ErrAccountDisabled
		}
		return issueTokens(u)
	}
	if !isNoRowsError(err) {
		return nil, err
	}

	// 新建社交账号用户，密码留空（不可密码登录）
	name := ident.Name
	if name == "" {
		name = ident.Email
	}
	nu := &model.User{
		Username:       name,
		Email:          ident.Email,
		PasswordHash:   "",
		Role:           model.RoleUser,
		Status:         model.UserStatusNormal,
		NotifyOptIn:    1,
		Provider:       ident.Provider,
		ProviderUserID: ident.ProviderUserID,
	}
	if err := nu.Insert(ctx, db); err != nil {
		if isMySQLDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	common.Printf("social account created: id=%d provider=%s\n", nu.ID, nu.Provider)
	return issueTokens(nu)
}

// Refresh 用刷新令牌换新令牌对
func (s *accountService) Refresh(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	claims, err := auth.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "refresh" {
		return nil, auth.ErrNotRefreshToken
	}
	if auth.IsTokenBlacklisted(ctx, refreshToken) {
		return nil, auth.ErrTokenRevoked
	}

	u, err := model.GetUserByID(ctx, infmysql.SQLX(), claims.UserID)
	if err != nil {
		if isNoRowsError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.Status != model.UserStatusNormal {
		return nil, ErrAccountDisabled
	}

	// 旧刷新令牌作废，防止重放
	if claims.ExpiresAt != nil {
		_ = auth.RevokeToken(ctx, refreshToken, claims.ExpiresAt.Time)
	}
	return issueTokens(u)
}

// RequestPasswordReset 发起密码重置：生成一次性令牌并写重置邮件事件
// 邮箱不存在时静默成功，避免枚举
func (s *accountService) RequestPasswordReset(ctx context.Context, email, traceID string) error {
	email = helper.NormalizeEmail(email)
	if email == "" {
		return ErrBadRequest
	}

	u, err := model.GetUserByEmail(ctx, infmysql.SQLX(), email)
	if err != nil {
		if isNoRowsError(err) {
			return nil
		}
		return err
	}

	token := helper.RandToken(32)
	expiresAt := time.Now().Add(resetTokenTTL).UnixMilli()

	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	pr := &model.PasswordReset{UserID: u.ID, Token: token, ExpiresAt: expiresAt}
	if err := pr.Insert(ctx, tx); err != nil {
		return err
	}
	if err := model.CreateOutbox(ctx, tx, model.TopicPasswordReset, token, map[string]any{
		"user_id":    u.ID,
		"email":      u.Email,
		"token":      token,
		"expires_at": expiresAt,
		"trace_id":   traceID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// ResetPassword 用一次性令牌重置密码
func (s *accountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || len(newPassword) < minPasswordLen {
		return ErrBadRequest
	}

	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	pr, err := model.GetValidReset(ctx, tx, token, time.Now().UnixMilli())
	if err != nil {
		if isNoRowsError(err) {
			return ErrResetTokenInvalid
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := model.UpdatePasswordHash(ctx, tx, pr.UserID, string(hash)); err != nil {
		return err
	}
	if err := model.MarkResetUsed(ctx, tx, pr.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// issueTokens 签发访问/刷新令牌对
func issueTokens(u *model.User) (*LoginOutput, error) {
	access, err := auth.GenerateAccessToken(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{
		UserID:       u.ID,
		Username:     u.Username,
		Role:         u.Role,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
