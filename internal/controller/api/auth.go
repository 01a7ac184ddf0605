package api

import (
	"encoding/json"
	"errors"
	"strings"

	svcauth "roulette-server/internal/auth"
	helper "roulette-server/internal/common/helper"
	"roulette-server/internal/common/response"
	"roulette-server/internal/service"

	beego "github.com/beego/beego/v2/server/web"
)

var newAccountService = service.NewAccountService

type AuthController struct{ beego.Controller }

type registerReq struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	CaptchaID  string `json:"captcha_id"`
	CaptchaVal string `json:"captcha_val"`
}

// Captcha 获取注册验证码：GET /api/auth/captcha
func (c *AuthController) Captcha() {
	traceID := helper.GetTraceID(c.Ctx)
	id, b64, err := svcauth.CreateCaptcha()
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, map[string]string{
		"captcha_id": id,
		"image":      b64,
	}, traceID)
}

// Register 注册：POST /api/auth/register
func (c *AuthController) Register() {
	traceID := helper.GetTraceID(c.Ctx)

	var req registerReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		response.BadRequest(&c.Controller, "invalid json body", traceID)
		return
	}

	out, err := newAccountService().Register(c.Ctx.Request.Context(), service.RegisterAccountInput{
		Username:   strings.TrimSpace(req.Username),
		Email:      req.Email,
		Password:   req.Password,
		CaptchaID:  req.CaptchaID,
		CaptchaVal: req.CaptchaVal,
		TraceID:    traceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			response.Conflict(&c.Controller, response.CodeEmailTaken, traceID)
		case errors.Is(err, service.ErrCaptchaMismatch):
			response.Error(&c.Controller, 400, response.CodeCaptchaMismatch, traceID)
		case errors.Is(err, service.ErrBadRequest):
			response.BadRequest(&c.Controller, "username/email/password invalid (password min 8 chars)", traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, out, traceID)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 登录：POST /api/auth/login
func (c *AuthController) Login() {
	traceID := helper.GetTraceID(c.Ctx)

	var req loginReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		response.BadRequest(&c.Controller, "invalid json body", traceID)
		return
	}

	out, err := newAccountService().Login(c.Ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadCredentials):
			response.Error(&c.Controller, 401, response.CodePasswordMismatch, traceID)
		case errors.Is(err, service.ErrAccountDisabled):
			response.Forbidden(&c.Controller, traceID)
		case errors.Is(err, service.ErrBadRequest):
			response.BadRequest(&c.Controller, "email and password required", traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, out, traceID)
}

type socialLoginReq struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
}

// SocialLogin 第三方登录：POST /api/auth/social
func (c *AuthController) SocialLogin() {
	traceID := helper.GetTraceID(c.Ctx)

	var req socialLoginReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		response.BadRequest(&c.Controller, "invalid json body", traceID)
		return
	}
	if req.Provider == "" || req.AccessToken == "" {
		response.BadRequest(&c.Controller, "provider and access_token required", traceID)
		return
	}

	out, err := newAccountService().SocialLogin(c.Ctx.Request.Context(), req.Provider, req.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, svcauth.ErrUnknownProvider), errors.Is(err, svcauth.ErrProviderDisabled):
			response.BadRequest(&c.Controller, "unsupported provider", traceID)
		case errors.Is(err, svcauth.ErrSocialVerifyFail), errors.Is(err, svcauth.ErrSocialEmailEmpty):
			response.Unauthorized(&c.Controller, response.CodeInvalidToken, traceID)
		case errors.Is(err, service.ErrAccountDisabled):
			response.Forbidden(&c.Controller, traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, out, traceID)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 刷新令牌：POST /api/auth/refresh
func (c *AuthController) Refresh() {
	traceID := helper.GetTraceID(c.Ctx)

	var req refreshReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil || req.RefreshToken == "" {
		response.BadRequest(&c.Controller, "refresh_token required", traceID)
		return
	}

	out, err := newAccountService().Refresh(c.Ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, svcauth.ErrTokenRevoked):
			response.Unauthorized(&c.Controller, response.CodeTokenRevoked, traceID)
		case errors.Is(err, svcauth.ErrInvalidToken), errors.Is(err, svcauth.ErrNotRefreshToken):
			response.Unauthorized(&c.Controller, response.CodeInvalidToken, traceID)
		case errors.Is(err, service.ErrAccountDisabled):
			response.Forbidden(&c.Controller, traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, out, traceID)
}

// Logout 登出：POST /api/auth/logout（需登录）
// 当前访问令牌加入黑名单
func (c *AuthController) Logout() {
	traceID := helper.GetTraceID(c.Ctx)

	authHeader := strings.TrimSpace(c.Ctx.Input.Header("Authorization"))
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}
	token := parts[1]

	claims, err := svcauth.ParseToken(token)
	if err != nil {
		response.Unauthorized(&c.Controller, response.CodeInvalidToken, traceID)
		return
	}
	if claims.ExpiresAt != nil {
		_ = svcauth.RevokeToken(c.Ctx.Request.Context(), token, claims.ExpiresAt.Time)
	}
	response.Success(&c.Controller, nil, traceID)
}

type resetRequestReq struct {
	Email string `json:"email"`
}

// RequestReset 发起密码重置：POST /api/auth/password/forgot
func (c *AuthController) RequestReset() {
	traceID := helper.GetTraceID(c.Ctx)

	var req resetRequestReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil || req.Email == "" {
		response.BadRequest(&c.Controller, "email required", traceID)
		return
	}

	if err := newAccountService().RequestPasswordReset(c.Ctx.Request.Context(), req.Email, traceID); err != nil {
		if errors.Is(err, service.ErrBadRequest) {
			response.BadRequest(&c.Controller, "invalid email", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}
	// 无论邮箱是否存在都返回成功，避免枚举
	response.Success(&c.Controller, nil, traceID)
}

type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword 执行密码重置：POST /api/auth/password/reset
func (c *AuthController) ResetPassword() {
	traceID := helper.GetTraceID(c.Ctx)

	var req resetPasswordReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		response.BadRequest(&c.Controller, "invalid json body", traceID)
		return
	}

	if err := newAccountService().ResetPassword(c.Ctx.Request.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrResetTokenInvalid):
			response.Error(&c.Controller, 400, response.CodeResetTokenInvalid, traceID)
		case errors.Is(err, service.ErrBadRequest):
			response.BadRequest(&c.Controller, "token and new_password required (password min 8 chars)", traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, nil, traceID)
}
