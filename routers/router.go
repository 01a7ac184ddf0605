package routers

import (
	"roulette-server/internal/config"
	"roulette-server/internal/controller/api"
	"roulette-server/internal/metrics"
	"roulette-server/internal/middleware"

	beego "github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// init 注册HTTP路由与全局过滤器
func init() {
	cfg := config.Get()

	// 全局过滤器（按执行顺序）
	// 1. Panic Recovery（最先执行，捕获所有 panic）
	beego.InsertFilter("/*", beego.BeforeRouter, middleware.RecoveryFilter)

	// 2. 请求ID注入
	beego.InsertFilter("/*", beego.BeforeRouter, middleware.RequestIDFilter)

	// 3. CORS 处理（如果启用）
	if cfg != nil && cfg.CORS.Enabled {
		beego.InsertFilter("/*", beego.BeforeExec, middleware.CORSFilter)
	}

	// 4. HTTP 指标收集
	beego.InsertFilter("/*", beego.BeforeExec, metrics.HTTPMetricsFilter)
	beego.InsertFilter("/*", beego.FinishRouter, metrics.HTTPMetricsAfter)

	// 5. 限流（如果启用）
	if cfg != nil && cfg.RateLimit.Enabled {
		beego.InsertFilter("/api/*", beego.BeforeExec, middleware.RateLimitFilter)
	}

	// 上传文件静态服务（报名凭证、活动封面）
	beego.SetStaticPath("/uploads", "uploads")

	// 健康检查与指标（无需认证）
	beego.Router("/healthz", &api.HealthController{}, "get:Healthz")
	beego.Router("/readyz", &api.HealthController{}, "get:Readyz")
	beego.Handler("/metrics", promhttp.Handler())

	// ========== 开放接口（无需登录） ==========

	beego.Router("/api/auth/captcha", &api.AuthController{}, "get:Captcha")
	beego.Router("/api/auth/register", &api.AuthController{}, "post:Register")
	beego.Router("/api/auth/login", &api.AuthController{}, "post:Login")
	beego.Router("/api/auth/social", &api.AuthController{}, "post:SocialLogin")
	beego.Router("/api/auth/refresh", &api.AuthController{}, "post:Refresh")
	beego.Router("/api/auth/password-reset/request", &api.AuthController{}, "post:RequestReset")
	beego.Router("/api/auth/password-reset/confirm", &api.AuthController{}, "post:ResetPassword")

	// 活动浏览与开奖结果查询对未登录用户开放
	beego.Router("/api/raffles", &api.RaffleController{}, "get:List")
	beego.Router("/api/raffles/:id", &api.RaffleController{}, "get:Detail")
	beego.Router("/api/raffles/:id/result", &api.RaffleController{}, "get:Result")

	// ========== 用户接口（JWT 认证） ==========

	beego.InsertFilter("/api/auth/logout", beego.BeforeExec, middleware.UserAuthFilter)
	beego.InsertFilter("/api/user/*", beego.BeforeExec, middleware.UserAuthFilter)
	beego.InsertFilter("/api/participations", beego.BeforeExec, middleware.UserAuthFilter)
	beego.InsertFilter("/api/participations/*", beego.BeforeExec, middleware.UserAuthFilter)
	beego.InsertFilter("/api/notifications", beego.BeforeExec, middleware.UserAuthFilter)
	beego.InsertFilter("/api/notifications/*", beego.BeforeExec, middleware.UserAuthFilter)

	beego.Router("/api/auth/logout", &api.AuthController{}, "post:Logout")

	beego.Router("/api/user/profile", &api.UserController{}, "get:Profile")
	beego.Router("/api/user/notify-opt-in", &api.UserController{}, "put:UpdateNotifyOptIn")
	beego.Router("/api/user/participations", &api.ParticipationController{}, "get:Mine")

	beego.Router("/api/participations", &api.ParticipationController{}, "post:Register")
	beego.Router("/api/participations/:id/receipt", &api.ParticipationController{}, "post:UploadReceipt")

	beego.Router("/api/notifications", &api.NotificationController{}, "get:List")
	beego.Router("/api/notifications/unread-count", &api.NotificationController{}, "get:UnreadCount")
	beego.Router("/api/notifications/:id/read", &api.NotificationController{}, "post:MarkRead")
	beego.Router("/api/notifications/read-all", &api.NotificationController{}, "post:MarkAllRead")

	// ========== 管理接口（管理员令牌认证） ==========

	if cfg != nil && cfg.Auth.Admin.Enabled {
		beego.InsertFilter("/api/admin/*", beego.BeforeExec, middleware.AdminAuthFilter)
	}

	beego.Router("/api/admin/raffles", &api.RaffleAdminController{}, "post:Create")
	beego.Router("/api/admin/raffles/:id", &api.RaffleAdminController{}, "put:Update")
	beego.Router("/api/admin/raffles/:id/transition", &api.RaffleAdminController{}, "post:Transition")
	beego.Router("/api/admin/raffles/:id/schedule", &api.RaffleAdminController{}, "post:Schedule")
	beego.Router("/api/admin/raffles/:id/settings", &api.RaffleAdminController{}, "put:UpdateSettings")
	beego.Router("/api/admin/raffles/:id/participants", &api.RaffleAdminController{}, "get:ListParticipants")
	beego.Router("/api/admin/raffles/:id/prizes", &api.RaffleAdminController{}, "post:CreatePrize")
	beego.Router("/api/admin/raffles/:id/prizes/:prize_id", &api.RaffleAdminController{}, "put:UpdatePrize")
	beego.Router("/api/admin/raffles/:id/prizes/:prize_id", &api.RaffleAdminController{}, "delete:DeletePrize")
	beego.Router("/api/admin/raffles/:id/assign-prize", &api.RaffleAdminController{}, "post:AssignPrize")
	beego.Router("/api/admin/raffles/:id/audit", &api.RaffleAdminController{}, "get:Audit")
	beego.Router("/api/admin/raffles/:id/draw", &api.DrawController{}, "post:Execute")
	beego.Router("/api/admin/raffles/:id/draw-history", &api.DrawController{}, "get:History")
}
