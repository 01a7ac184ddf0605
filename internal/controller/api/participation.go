package api

import (
	"database/sql"
	"errors"

	helper "roulette-server/internal/common/helper"
	"roulette-server/internal/common/response"
	infmysql "roulette-server/internal/infra/mysql"
	"roulette-server/internal/model"
	"roulette-server/internal/service"
	"roulette-server/internal/storage"

	beego "github.com/beego/beego/v2/server/web"
)

var newParticipationService = service.NewParticipationService

// ParticipationController 报名与参与记录接口
type ParticipationController struct{ beego.Controller }

// Register 报名：POST /api/participations
func (c *ParticipationController) Register() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}

	rp, ok, msg := helper.ParseAndValidateRegister(c.Ctx)
	if !ok {
		response.BadRequest(&c.Controller, msg, traceID)
		return
	}

	out, err := newParticipationService().Register(c.Ctx.Request.Context(), service.RegisterInput{
		RaffleID:       rp.RaffleID,
		UserID:         userID,
		ReceiptPath:    rp.ReceiptPath,
		IdempotencyKey: rp.IdempotencyKey,
		TraceID:        traceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(&c.Controller, "活动不存在", traceID)
		case errors.Is(err, service.ErrInvalidState):
			response.Conflict(&c.Controller, response.CodeInvalidState, traceID)
		case errors.Is(err, service.ErrWindowNotStart):
			response.Conflict(&c.Controller, response.CodeWindowNotOpen, traceID)
		case errors.Is(err, service.ErrWindowClosed):
			response.Conflict(&c.Controller, response.CodeWindowClosed, traceID)
		case errors.Is(err, service.ErrAlreadyJoined):
			response.Conflict(&c.Controller, response.CodeAlreadyJoined, traceID)
		case errors.Is(err, service.ErrRaffleFull):
			response.Conflict(&c.Controller, response.CodeRaffleFull, traceID)
		case errors.Is(err, service.ErrReceiptRequired):
			response.BadRequest(&c.Controller, "需要上传报名凭证", traceID)
		case errors.Is(err, service.ErrDuplicateInFlight):
			response.Conflict(&c.Controller, response.CodeDuplicateInFlight, traceID)
		default:
			response.InternalError(&c.Controller, traceID)
		}
		return
	}
	response.Success(&c.Controller, out, traceID)
}

// Mine 我的参与记录：GET /api/participations/mine
func (c *ParticipationController) Mine() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}
	limit, offset := helper.ParsePage(c.Ctx)

	list, err := newParticipationService().ListByUser(c.Ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, list, traceID)
}

// UploadReceipt 上传报名凭证：POST /api/participations/:id/receipt
// multipart 表单，字段名 receipt。只能更新本人记录。
func (c *ParticipationController) UploadReceipt() {
	traceID := helper.GetTraceID(c.Ctx)
	userID := helper.GetUserID(c.Ctx)
	if userID <= 0 {
		response.Unauthorized(&c.Controller, response.CodeUnauthorized, traceID)
		return
	}
	participationID, ok := helper.ParsePathID(c.Ctx, ":id")
	if !ok {
		response.BadRequest(&c.Controller, "invalid participation id", traceID)
		return
	}
	ctx := c.Ctx.Request.Context()

	p, err := model.GetParticipation(ctx, infmysql.SQLX(), participationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.NotFound(&c.Controller, "记录不存在", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}
	if p.UserID != userID {
		response.Forbidden(&c.Controller, traceID)
		return
	}

	_, fh, err := c.GetFile("receipt")
	if err != nil {
		response.BadRequest(&c.Controller, "receipt file required", traceID)
		return
	}

	path, err := storage.SaveUpload(fh, storage.CategoryReceipt)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrExtNotAllowed) {
			response.BadRequest(&c.Controller, err.Error(), traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}

	if err := model.UpdateReceipt(ctx, infmysql.SQLX(), participationID, path); err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	response.Success(&c.Controller, map[string]string{"receipt_path": path}, traceID)
}
