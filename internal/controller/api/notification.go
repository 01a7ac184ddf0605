package api

import (
	helper "roulette-server/internal/common/helper"
	"roulette-server/internal/common/response"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"

	beego "github.com/beego/beego/v2/server/web"
)

// NotificationController 站内通知接口，全部按当前登录用户过滤
type NotificationController struct{ beego.Controller }

// List 通知列表：GET /api/notifications
func (c *NotificationController) List() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}
	limit, offset := helper.ParsePage(c.Ctx)

	list, err := model.ListNotifications(c.Ctx.Request.Context(), infmysql.SQLX(), userID, limit, offset)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, list, traceID)
}

// UnreadCount 未读数：GET /api/notifications/unread-count
func (c *NotificationController) UnreadCount() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}

	count, err := model.CountUnread(c.Ctx.Request.Context(), infmysql.SQLX(), userID)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, map[string]int{"unread": count}, traceID)
}

// MarkRead 标记已读：POST /api/notifications/:id/read
// user_id 一并作为条件，读不到别人的通知
func (c *NotificationController) MarkRead() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}
	notificationID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid notification id", traceID)
		return
	}

	if err := model.MarkNotificationRead(c.Ctx.Request.Context(), infmysql.SQLX(), userID, notificationID); err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, nil, traceID)
}

// MarkAllRead 全部已读：POST /api/notifications/read-all
func (c *NotificationController) MarkAllRead() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}

	if err := model.MarkAllRead(c.Ctx.Request.Context(), infmysql.SQLX(), userID); err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, nil, traceID)
}
