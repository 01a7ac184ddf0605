package api

import (
	"encoding/json"
	"errors"

	helper "roulette-server/internal/common/helper"
	"roulette-server/internal/common/response"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"
	"roulette-server/internal/service"
	"roulette-server/internal/state"

	beego "github.com/beego/beego/v2/server/web"
)

var newRaffleService = service.NewRaffleService

// RaffleAdminController 后台活动管理接口
type RaffleAdminController struct{ beego.Controller }

// Create 创建活动：POST /api/admin/raffles
func (c *RaffleAdminController) Create() {
	traceID := helper.GetTraceID(c.Ctx)

	rp, ok, msg := helper.ParseAndValidateRaffle(c.Ctx)
	if !ok {
		response.BadRequest(&c.Controller, msg, traceID)
		return
	}

	r, err := newRaffleService().Create(c.Ctx.Request.Context(), service.CreateRaffleInput{
		Title:              rp.Title,
		Description:        rp.Description,
		CoverImage:         rp.CoverImage,
		ParticipationStart: rp.ParticipationStart,
		ParticipationEnd:   rp.ParticipationEnd,
		ScheduledDrawTime:  rp.ScheduledDrawTime,
		CreatedBy:          helper.GetUserID(c.Ctx),
		TraceID:            traceID,
	})
	if err != nil {
		if errors.Is(err, service.ErrBadRequest) {
			response.BadRequest(&c.Controller, "invalid request", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, r, traceID)
}

// Update 更新活动信息：PUT /api/admin/raffles/:id
func (c *RaffleAdminController) Update() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	rp, ok, msg := helper.ParseAndValidateRaffle(c.Ctx)
	if !ok {
		response.BadRequest(&c.Controller, msg, traceID)
		return
	}

	err := newRaffleService().Update(c.Ctx.Request.Context(), raffleID, service.CreateRaffleInput{
		Title:              rp.Title,
		Description:        rp.Description,
		CoverImage:         rp.CoverImage,
		ParticipationStart: rp.ParticipationStart,
		ParticipationEnd:   rp.ParticipationEnd,
		TraceID:            traceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(&c.Controller, "活动不存在", traceID)
		case errors.Is(err, service.ErrInvalidState):
			response.Conflict(&c.Controller, response.CodeInvalidState, traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, nil, traceID)
}

type transitionReq struct {
	Event string `json:"event"`
}

// Transition 状态流转：POST /api/admin/raffles/:id/transition
// event: activate | cancel（schedule 走 Schedule 接口）
func (c *RaffleAdminController) Transition() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	var req transitionReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		response.BadRequest(&c.Controller, "invalid json body", traceID)
		return
	}
	if req.Event != state.EvtActivate && req.Event != state.EvtCancel {
		response.BadRequest(&c.Controller, "event must be activate|cancel", traceID)
		return
	}

	next, err := newRaffleService().Transition(c.Ctx.Request.Context(), raffleID, req.Event, "admin", traceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(&c.Controller, "活动不存在", traceID)
		case errors.Is(err, service.ErrInvalidState):
			response.Conflict(&c.Controller, response.CodeInvalidState, traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, map[string]string{"state": next}, traceID)
}

type scheduleReq struct {
	DrawTime int64 `json:"draw_time"` // 毫秒时间戳
}

// Schedule 设置定时开奖：POST /api/admin/raffles/:id/schedule
func (c *RaffleAdminController) Schedule() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	var req scheduleReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil || req.DrawTime <= 0 {
		response.BadRequest(&c.Controller, "draw_time (ms timestamp) required", traceID)
		return
	}

	err := newRaffleService().Schedule(c.Ctx.Request.Context(), raffleID, req.DrawTime, "admin", traceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(&c.Controller, "活动不存在", traceID)
		case errors.Is(err, service.ErrInvalidState):
			response.Conflict(&c.Controller, response.CodeInvalidState, traceID)
		case errors.Is(err, service.ErrBadRequest):
			response.BadRequest(&c.Controller, "draw_time must be in the future", traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, nil, traceID)
}

// UpdateSettings 更新活动配置：PUT /api/admin/raffles/:id/settings
func (c *RaffleAdminController) UpdateSettings() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	var s model.RaffleSettings
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &s); err != nil {
		response.BadRequest(&c.Controller, "invalid json body", traceID)
		return
	}
	s.RaffleID = raffleID

	if err := newRaffleService().UpdateSettings(c.Ctx.Request.Context(), &s); err != nil {
		if errors.Is(err, service.ErrBadRequest) {
			response.BadRequest(&c.Controller, "invalid settings", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, nil, traceID)
}

// ListParticipants 查看活动参与台账：GET /api/admin/raffles/:id/participants
func (c *RaffleAdminController) ListParticipants() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	list, err := service.NewParticipationService().ListByRaffle(c.Ctx.Request.Context(), raffleID)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, map[string]interface{}{
		"total": len(list),
		"list":  list,
	}, traceID)
}

// CreatePrize 新增奖品：POST /api/admin/raffles/:id/prizes
func (c *RaffleAdminController) CreatePrize() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	var p model.Prize
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &p); err != nil || p.Name == "" {
		response.BadRequest(&c.Controller, "prize name required", traceID)
		return
	}
	p.RaffleID = raffleID

	if err := p.Insert(c.Ctx.Request.Context(), infmysql.SQLX()); err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, p, traceID)
}

// UpdatePrize 更新奖品：PUT /api/admin/raffles/:id/prizes/:prize_id
func (c *RaffleAdminController) UpdatePrize() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	prizeID, ok2 := helper.ParsePathID(c.Ctx, ":prize_id")
	if !ok || !ok2 {
		response.BadRequest(&c.Controller, "invalid id", traceID)
		return
	}

	var p model.Prize
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &p); err != nil || p.Name == "" {
		response.BadRequest(&c.Controller, "prize name required", traceID)
		return
	}
	p.ID = prizeID
	p.RaffleID = raffleID

	if err := model.UpdatePrize(c.Ctx.Request.Context(), infmysql.SQLX(), &p); err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, nil, traceID)
}

// DeletePrize 删除奖品：DELETE /api/admin/raffles/:id/prizes/:prize_id
func (c *RaffleAdminController) DeletePrize() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	prizeID, ok2 := helper.ParsePathID(c.Ctx, ":prize_id")
	if !ok || !ok2 {
		response.BadRequest(&c.Controller, "invalid id", traceID)
		return
	}

	if err := model.DeletePrize(c.Ctx.Request.Context(), infmysql.SQLX(), raffleID, prizeID); err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, nil, traceID)
}

type assignPrizeReq struct {
	ParticipationID int64 `json:"participation_id"`
	PrizeID         int64 `json:"prize_id"`
}

// AssignPrize 中奖记录绑定奖品：POST /api/admin/raffles/:id/assign-prize
func (c *RaffleAdminController) AssignPrize() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	var req assignPrizeReq
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil ||
		req.ParticipationID <= 0 || req.PrizeID <= 0 {
		response.BadRequest(&c.Controller, "participation_id and prize_id required", traceID)
		return
	}

	err := newRaffleService().AssignPrize(c.Ctx.Request.Context(), raffleID, req.ParticipationID, req.PrizeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(&c.Controller, "记录不存在", traceID)
		case errors.Is(err, service.ErrWinnerNotBound):
			response.Conflict(&c.Controller, response.CodeBusinessError, traceID)
		case errors.Is(err, service.ErrBadRequest):
			response.BadRequest(&c.Controller, "prize does not belong to this raffle", traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, nil, traceID)
}

// Audit 活动审计记录：GET /api/admin/raffles/:id/audit
func (c *RaffleAdminController) Audit() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	list, err := model.ListRaffleAudit(c.Ctx.Request.Context(), infmysql.SQLX(), raffleID, 100)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, list, traceID)
}
