package api

import (
	"database/sql"
	"encoding/json"
	"errors"

	helper "roulette-server/internal/common/helper"
	"roulette-server/internal/common/response"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"

	beego "github.com/beego/beego/v2/server/web"
)

// UserController 当前登录用户的个人信息接口
type UserController struct{ beego.Controller }

type profileView struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        int8   `json:"role"`
	NotifyOptIn int8   `json:"notify_opt_in"`
	CreatedAt   int64  `json:"created_at"`
}

// Profile 个人信息：GET /api/user/profile
func (c *UserController) Profile() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}

	u, err := model.GetUserByID(c.Ctx.Request.Context(), infmysql.SQLX(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.NotFound(&c.Controller, "用户不存在", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, profileView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		NotifyOptIn: u.NotifyOptIn,
		CreatedAt:   u.CreatedAt,
	}, traceID)
}

type notifyOptInReq struct {
	OptIn *int8 `json:"opt_in"` // 1=接收 0=退订
}

// UpdateNotifyOptIn 通知订阅开关：PUT /api/user/notify-opt-in
func (c *UserController) UpdateNotifyOptIn() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}

	var req notifyOptInReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil ||
		req.OptIn == nil || (*req.OptIn != 0 && *req.OptIn != 1) {
		response.BadRequest(&c.Controller, "opt_in must be 0 or 1", traceID)
		return
	}

	if err := model.UpdateNotifyOptIn(c.Ctx.Request.Context(), infmysql.SQLX(), userID, *req.OptIn); err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, nil, traceID)
}
