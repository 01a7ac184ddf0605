package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"roulette-server/common"
	infmysql "roulette-server/internal/infra/mysql"
	infrds "roulette-server/internal/infra/redis"
	"roulette-server/internal/model"
	"roulette-server/internal/state"

	g "github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// CreateRaffleInput 创建活动入参
type CreateRaffleInput struct {
	Title              string
	Description        string
	CoverImage         string
	ParticipationStart int64
	ParticipationEnd   int64
	ScheduledDrawTime  int64
	CreatedBy          int64
	TraceID            string
}

// ListRafflesInput 列表查询入参
type ListRafflesInput struct {
	Status int8 // 0=不过滤
	Limit  int
	Offset int
}

type RaffleService interface {
	Create(ctx context.Context, in CreateRaffleInput) (*model.Raffle, error)
	Get(ctx context.Context, raffleID int64) (*model.Raffle, error)
	List(ctx context.Context, in ListRafflesInput) ([]model.Raffle, int, error)
	Update(ctx context.Context, raffleID int64, in CreateRaffleInput) error
	Transition(ctx context.Context, raffleID int64, event, operator, traceID string) (string, error)
	Schedule(ctx context.Context, raffleID, drawTimeMs int64, operator, traceID string) error
	UpdateSettings(ctx context.Context, s *model.RaffleSettings) error
	AssignPrize(ctx context.Context, raffleID, participationID, prizeID int64) error
}

type raffleService struct{}

func NewRaffleService() RaffleService { return &raffleService{} }

const raffleInfoTTL = 2 * time.Minute

// Create 创建活动：活动 + 默认配置 + 审计同事务落库
// 新活动以 draft 状态落地，上线（activate）后才写 raffle_created 通知事件
func (s *raffleService) Create(ctx context.Context, in CreateRaffleInput) (*model.Raffle, error) {
	if in.Title == "" {
		return nil, ErrBadRequest
	}

	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	r := &model.Raffle{
		Title:              in.Title,
		Description:        in.Description,
		CoverImage:         in.CoverImage,
		Status:             stateToCode(state.StateDraft),
		ParticipationStart: in.ParticipationStart,
		ParticipationEnd:   in.ParticipationEnd,
		ScheduledDrawTime:  in.ScheduledDrawTime,
		CreatedBy:          in.CreatedBy,
	}
	if err := r.Insert(ctx, tx); err != nil {
		return nil, err
	}
	if err := model.InsertDefaultSettings(ctx, tx, r.ID); err != nil {
		return nil, err
	}

	aud := &model.RaffleAudit{
		RaffleID:  r.ID,
		Event:     "create",
		PrevState: "",
		NextState: state.StateDraft,
		Operator:  strconv.FormatInt(in.CreatedBy, 10),
		Source:    "admin",
		Payload:   toJSON(map[string]any{"title": in.Title}),
		TraceID:   in.TraceID,
	}
	if err := aud.Insert(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	common.Printf("raffle created: id=%d title=%s\n", r.ID, r.Title)
	return r, nil
}

// Get 查询活动详情，优先读 Redis 缓存
func (s *raffleService) Get(ctx context.Context, raffleID int64) (*model.Raffle, error) {
	if rdb := infrds.Client(); rdb != nil {
		if bs, _ := rdb.Get(ctx, infrds.RaffleInfoKey(raffleID)).Bytes(); len(bs) > 0 {
			var r model.Raffle
			if json.Unmarshal(bs, &r) == nil {
				return &r, nil
			}
		}
	}

	r, err := model.GetRaffle(ctx, infmysql.SQLX(), raffleID)
	if err != nil {
		if isNoRowsError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if rdb := infrds.Client(); rdb != nil {
		if b, e := json.Marshal(r); e == nil {
			rdb.Set(ctx, infrds.RaffleInfoKey(raffleID), b, raffleInfoTTL)
		}
	}
	return r, nil
}

// List 分页查询活动列表（goqu 构建查询）
func (s *raffleService) List(ctx context.Context, in ListRafflesInput) ([]model.Raffle, int, error) {
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 20
	}

	var ex []exp.Expression
	if in.Status > 0 {
		ex = append(ex, g.C("status").Eq(in.Status))
	}

	total, err := common.CountCtx(ctx, infmysql.SQLX(), "raffles", ex...)
	if err != nil {
		return nil, 0, err
	}

	var list []model.Raffle
	err = common.SelectAllCtx(ctx, &list, common.QueryArg{
		Db:     infmysql.SQLX(),
		Table:  "raffles",
		Fields: common.EnumFields(model.Raffle{}),
		Ex:     ex,
		Order:  []exp.OrderedExpression{g.C("id").Desc()},
		Offset: uint(in.Offset),
		Limit:  uint(in.Limit),
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update 更新活动基础信息（已开奖/已取消的活动不可改）
func (s *raffleService) Update(ctx context.Context, raffleID int64, in CreateRaffleInput) error {
	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	r, err := model.GetRaffleForUpdate(ctx, tx, raffleID)
	if err != nil {
		if isNoRowsError(err) {
			return ErrNotFound
		}
		return err
	}
	cur := codeToState(r.Status)
	if cur == state.StateCompleted || cur == state.StateCancelled {
		return ErrInvalidState
	}

	r.Title = in.Title
	r.Description = in.Description
	r.CoverImage = in.CoverImage
	r.ParticipationStart = in.ParticipationStart
	r.ParticipationEnd = in.ParticipationEnd
	if err := model.UpdateInfo(ctx, tx, r); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidateCache(raffleID)
	return nil
}

// Transition 活动状态流转：行锁内做状态机校验，审计 + 通知事件同事务落库
// 返回新状态。activate 事件会写 raffle_created 通知事件（新活动广播）。
func (s *raffleService) Transition(ctx context.Context, raffleID int64, event, operator, traceID string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	r, err := model.GetRaffleForUpdate(ctx, tx, raffleID)
	if err != nil {
		if isNoRowsError(err) {
			return "", ErrNotFound
		}
		return "", err
	}

	cur := codeToState(r.Status)
	next, err := state.NextState(cur, event)
	if err != nil {
		common.Printf("[Transition] 非法状态流转: raffle_id=%d, %s --%s-->, trace_id=%s\n",
			raffleID, cur, event, traceID)
		return "", ErrInvalidState
	}

	if err := model.UpdateStatus(ctx, tx, raffleID, stateToCode(next)); err != nil {
		return "", err
	}

	aud := &model.RaffleAudit{
		RaffleID:  raffleID,
		Event:     event,
		PrevState: cur,
		NextState: next,
		Operator:  operator,
		Source:    "admin",
		Payload:   "{}",
		TraceID:   traceID,
	}
	if err := aud.Insert(ctx, tx); err != nil {
		return "", err
	}

	// 状态流转事件进公共流；上线事件另发新活动广播
	bizKey := fmt.Sprintf("raffle-%d-%s", raffleID, event)
	if err := model.CreateOutbox(ctx, tx, model.TopicRaffleStateMoved, bizKey, map[string]any{
		"raffle_id": raffleID,
		"event":     event,
		"prev":      cur,
		"next":      next,
		"trace_id":  traceID,
	}); err != nil {
		return "", err
	}
	if event == state.EvtActivate {
		if err := model.CreateOutbox(ctx, tx, model.TopicRaffleCreated, fmt.Sprintf("raffle-%d", raffleID), map[string]any{
			"raffle_id": raffleID,
			"title":     r.Title,
			"trace_id":  traceID,
		}); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.invalidateCache(raffleID)
	common.Printf("raffle transition: id=%d %s --%s--> %s\n", raffleID, cur, event, next)
	return next, nil
}

// Schedule 设置定时开奖：写入开奖时间并流转到 scheduled 状态
func (s *raffleService) Schedule(ctx context.Context, raffleID, drawTimeMs int64, operator, traceID string) error {
	if drawTimeMs <= time.Now().UnixMilli() {
		return ErrBadRequest
	}

	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	r, err := model.GetRaffleForUpdate(ctx, tx, raffleID)
	if err != nil {
		if isNoRowsError(err) {
			return ErrNotFound
		}
		return err
	}

	cur := codeToState(r.Status)
	next, err := state.NextState(cur, state.EvtSchedule)
	if err != nil {
		return ErrInvalidState
	}

	if err := model.UpdateScheduledDraw(ctx, tx, raffleID, drawTimeMs); err != nil {
		return err
	}
	if err := model.UpdateStatus(ctx, tx, raffleID, stateToCode(next)); err != nil {
		return err
	}

	aud := &model.RaffleAudit{
		RaffleID:  raffleID,
		Event:     state.EvtSchedule,
		PrevState: cur,
		NextState: next,
		Operator:  operator,
		Source:    "admin",
		Payload:   toJSON(map[string]any{"scheduled_draw_time": drawTimeMs}),
		TraceID:   traceID,
	}
	if err := aud.Insert(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidateCache(raffleID)
	return nil
}

// UpdateSettings 更新活动配置
func (s *raffleService) UpdateSettings(ctx context.Context, settings *model.RaffleSettings) error {
	if settings.RaffleID <= 0 || settings.MaxParticipants < 0 {
		return ErrBadRequest
	}
	if err := model.UpdateSettings(ctx, infmysql.SQLX(), settings); err != nil {
		return err
	}
	s.invalidateCache(settings.RaffleID)
	return nil
}

// AssignPrize 开奖后人工为中奖记录绑定奖品
// 校验奖品属于该活动、记录确为该活动的中奖记录
func (s *raffleService) AssignPrize(ctx context.Context, raffleID, participationID, prizeID int64) error {
	p, err := model.GetParticipation(ctx, infmysql.SQLX(), participationID)
	if err != nil {
		if isNoRowsError(err) {
			return ErrNotFound
		}
		return err
	}
	if p.RaffleID != raffleID || p.IsWinner != 1 {
		return ErrWinnerNotBound
	}

	prize, err := model.GetPrize(ctx, infmysql.SQLX(), prizeID)
	if err != nil {
		if isNoRowsError(err) {
			return ErrNotFound
		}
		return err
	}
	if prize.RaffleID != raffleID {
		return ErrBadRequest
	}

	if err := model.AssignPrize(ctx, infmysql.SQLX(), participationID, prizeID); err != nil {
		if isNoRowsError(err) {
			return ErrWinnerNotBound
		}
		return err
	}
	return nil
}

func (s *raffleService) invalidateCache(raffleID int64) {
	if rdb := infrds.Client(); rdb != nil {
		rdb.Del(context.Background(), infrds.RaffleInfoKey(raffleID))
	}
}
