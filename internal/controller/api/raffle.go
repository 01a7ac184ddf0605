package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	helper "roulette-server/internal/common/helper"
	"roulette-server/internal/common/response"
	infmysql "roulette-server/internal/infra/mysql"
	infrds "roulette-server/internal/infra/redis"
	"roulette-server/internal/model"
	"roulette-server/internal/service"

	beego "github.com/beego/beego/v2/server/web"
)

// RaffleController 面向普通用户的活动查询接口
type RaffleController struct{ beego.Controller }

// List 活动列表：GET /api/raffles?page=&size=&status=
func (c *RaffleController) List() {
	traceID := helper.GetTraceID(c.Ctx)
	limit, offset := helper.ParsePage(c.Ctx)

	var status int8
	if s := strings.TrimSpace(c.Ctx.Input.Query("status")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 5 {
			response.BadRequest(&c.Controller, "invalid status", traceID)
			return
		}
		status = int8(n)
	}

	list, total, err := newRaffleService().List(c.Ctx.Request.Context(), service.ListRafflesInput{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, map[string]interface{}{
		"total": total,
		"list":  list,
	}, traceID)
}

// Detail 活动详情：GET /api/raffles/:id
// 返回活动信息 + 配置 + 奖品列表 + 参与人数
func (c *RaffleController) Detail() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}
	ctx := c.Ctx.Request.Context()

	r, err := newRaffleService().Get(ctx, raffleID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(&c.Controller, "活动不存在", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}

	db := infmysql.SQLX()
	settings, err := model.GetSettings(ctx, db, raffleID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		response.InternalError(&c.Controller, traceID)
		return
	}
	prizes, err := model.ListPrizes(ctx, db, raffleID)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	count, err := model.CountParticipations(ctx, db, raffleID)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}

	response.Success(&c.Controller, map[string]interface{}{
		"raffle":            r,
		"settings":          settings,
		"prizes":            prizes,
		"participant_count": count,
	}, traceID)
}

// Result 开奖结果：GET /api/raffles/:id/result
// 先查 Redis 结果缓存，未命中回源 draw_history
func (c *RaffleController) Result() {
	traceID := helper.GetTraceID(c.Ctx)
	raffleID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid raffle id", traceID)
		return
	}
	ctx := c.Ctx.Request.Context()

	if rdb := infrds.Client(); rdb != nil {
		if bs, _ := rdb.Get(ctx, infrds.DrawResultKey(raffleID)).Bytes(); len(bs) > 0 {
			var out service.DrawOutput
			if json.Unmarshal(bs, &out) == nil {
				response.Success(&c.Controller, resultView(&out), traceID)
				return
			}
		}
	}

	h, err := model.GetDrawHistory(ctx, infmysql.SQLX(), raffleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.NotFound(&c.Controller, "尚未开奖", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}
	p, err := model.GetParticipation(ctx, infmysql.SQLX(), h.WinnerParticipationID)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, map[string]interface{}{
		"raffle_id":               h.RaffleID,
		"winner_participation_id": h.WinnerParticipationID,
		"winner_user_id":          p.UserID,
		"participant_number":      p.ParticipantNumber,
		"participants_count":      h.ParticipantsCount,
		"drawn_at":                h.CreatedAt,
	}, traceID)
}

func resultView(out *service.DrawOutput) map[string]interface{} {
	return map[string]interface{}{
		"raffle_id":               out.RaffleID,
		"winner_participation_id": out.WinnerParticipationID,
		"winner_user_id":          out.WinnerUserID,
		"participant_number":      out.ParticipantNumber,
		"participants_count":      out.ParticipantsCount,
		"drawn_at":                out.DrawnAt,
	}
}
