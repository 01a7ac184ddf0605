package api

import (
	"errors"

	helper "roulette-server/internal/common/helper"
	"roulette-server/internal/common/response"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"
	"roulette-server/internal/service"

	beego "github.com/beego/beego/v2/server/web"
)

var newDrawService = service.NewDrawService

type DrawController struct{ beego.Controller }

// Execute 人工开奖接口：POST /api/admin/raffles/:id/draw
func (c *DrawController) Execute() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	operator := c.Ctx.Input.Query("operator")
	if operator == "" {
		operator = "admin"
	}

	svc := newDrawService()
	out, err := svc.Execute(c.Ctx.Request.Context(), service.DrawInput{
		RaffleID: raffleID,
		Operator: operator,
		DrawType: service.DrawTypeManual,
		TraceID:  traceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyDrawn):
			response.Conflict(&c.Controller, response.CodeAlreadyDrawn, traceID)
		case errors.Is(err, service.ErrNotAvailable):
			response.Conflict(&c.Controller, response.CodeNotAvailable, traceID)
		case errors.Is(err, service.ErrNoParticipants):
			response.Conflict(&c.Controller, response.CodeNoParticipants, traceID)
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(&c.Controller, "活动不存在", traceID)
		case errors.Is(err, service.ErrBadRequest):
			response.BadRequest(&c.Controller, "invalid request", traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}

	response.Success(&c.Controller, map[string]interface{}{
		"raffle_id":               out.RaffleID,
		"winner_participation_id": out.WinnerParticipationID,
		"participant_number":      out.ParticipantNumber,
		"participants_count":      out.ParticipantsCount,
		"seed":                    out.Seed,
		"drawn_at":                out.DrawnAt,
	}, traceID)
}

// History 开奖审计查询：GET /api/admin/raffles/:id/draw
func (c *DrawController) History() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}

	h, err := model.GetDrawHistory(c.Ctx.Request.Context(), infmysql.SQLX(), raffleID)
	if err != nil {
		response.NotFound(&c.Controller, "该活动暂无开奖记录", traceID)
		return
	}
	response.Success(&c.Controller, h, traceID)
}
