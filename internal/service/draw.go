package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"roulette-server/common"
	infmysql "roulette-server/internal/infra/mysql"
	infrds "roulette-server/internal/infra/redis"
	"roulette-server/internal/metrics"
	"roulette-server/internal/model"
	"roulette-server/internal/state"

	"github.com/google/uuid"
)

// 开奖类型：manual=管理员手动，scheduled=到点定时，auto=报名满员触发
const (
	DrawTypeManual    = "manual"
	DrawTypeScheduled = "scheduled"
	DrawTypeAuto      = "auto"
)

// normalizeDrawType 未知类型一律按手动开奖记录
func normalizeDrawType(t string) string {
	switch t {
	case DrawTypeManual, DrawTypeScheduled, DrawTypeAuto:
		return t
	}
	return DrawTypeManual
}

// DrawInput 输入参数
type DrawInput struct {
	RaffleID int64
	Operator string // 管理员标识，定时开奖为 "system"
	DrawType string // manual | scheduled | auto
	TraceID  string
}

type DrawOutput struct {
	RaffleID              int64
	WinnerParticipationID int64
	WinnerUserID          int64
	ParticipantNumber     int
	ParticipantsCount     int
	Seed                  string
	DrawnAt               int64
}

type DrawService interface {
	Execute(ctx context.Context, in DrawInput) (*DrawOutput, error)
}

type drawService struct{}

func NewDrawService() DrawService { return &drawService{} }

// 默认事务超时时间，防止长事务占用资源影响并发（若上游已有 deadline，则沿用上游）
const defaultTxTimeout = 3 * time.Second

// Execute 开奖主流程：
// 锁活动行 → 状态校验 → 读参与台账 → 均匀抽取 → 落结果 → 审计 → 通知事件
// 整个"检查-抽取-写入"在 raffles 行锁保护下执行，并发重复开奖会在锁上排队，
// 后到者看到 is_drawn=1 返回 ErrAlreadyDrawn；draw_history 的 raffle_id 唯一键
// 是第二道保险。
func (s *drawService) Execute(ctx context.Context, in DrawInput) (*DrawOutput, error) {
	if in.RaffleID <= 0 {
		return nil, ErrBadRequest
	}
	in.DrawType = normalizeDrawType(in.DrawType)

	common.Printf("[Draw] 收到开奖请求: raffle_id=%d, operator=%s, draw_type=%s, trace_id=%s\n",
		in.RaffleID, in.Operator, in.DrawType, in.TraceID)

	start := time.Now()
	resultLabel := "fail"
	defer func() { metrics.RecordDraw(resultLabel, in.DrawType, start) }()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := infmysql.SQLX().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// ========== 行锁：串行化同一活动的并发开奖 ==========
	r, err := model.GetRaffleForUpdate(ctx, tx, in.RaffleID)
	if err != nil {
		if isNoRowsError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	curState := codeToState(r.Status)
	common.Printf("[Draw] 当前状态: state=%s(%d), is_drawn=%d, raffle_id=%d, trace_id=%s\n",
		curState, r.Status, r.IsDrawn, in.RaffleID, in.TraceID)

	// 已开奖：类型化失败，锁上排队的并发请求走到这里
	if r.IsDrawn == 1 {
		resultLabel = "already_drawn"
		return nil, ErrAlreadyDrawn
	}

	// 状态机校验：仅 active/scheduled 可开奖
	nextState, err := state.NextState(curState, state.EvtCompleteDraw)
	if err != nil {
		resultLabel = "not_available"
		return nil, ErrNotAvailable
	}

	// 读取参与台账（号码升序，顺序稳定）
	participants, err := model.ListParticipations(ctx, tx, in.RaffleID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		resultLabel = "no_participants"
		return nil, ErrNoParticipants
	}
	metrics.RecordDrawPool(in.DrawType, len(participants))

	// 均匀随机抽取中奖下标
	idx, err := pickWinnerIndex(len(participants))
	if err != nil {
		return nil, err
	}
	winner := participants[idx]
	seed := newDrawSeed(in.RaffleID)

	common.Printf("[Draw] 抽取完成: raffle_id=%d, pool=%d, index=%d, winner_pid=%d, number=%d, trace_id=%s\n",
		in.RaffleID, len(participants), idx, winner.ID, winner.ParticipantNumber, in.TraceID)

	// 写入开奖结果：winner/状态/is_drawn 单条语句落库
	if err := model.UpdateDrawResult(ctx, tx, in.RaffleID, winner.ID, in.Operator); err != nil {
		return nil, err
	}
	if err := model.MarkWinner(ctx, tx, winner.ID); err != nil {
		return nil, err
	}

	// 审计记录：raffle_id 唯一键，重复开奖的双重保护
	hist := &model.DrawHistory{
		RaffleID:              in.RaffleID,
		WinnerParticipationID: winner.ID,
		ExecutedBy:            in.Operator,
		DrawType:              in.DrawType,
		Seed:                  seed,
		ParticipantsCount:     len(participants),
	}
	if err := hist.Insert(ctx, tx); err != nil {
		if isMySQLDuplicateKeyError(err) {
			common.Printf("[Draw] 开奖记录已存在，拒绝重复开奖: raffle_id=%d, trace_id=%s\n",
				in.RaffleID, in.TraceID)
			resultLabel = "already_drawn"
			return nil, ErrAlreadyDrawn
		}
		return nil, err
	}

	// 状态机审计
	aud := &model.RaffleAudit{
		RaffleID:  in.RaffleID,
		Event:     state.EvtCompleteDraw,
		PrevState: curState,
		NextState: nextState,
		Operator:  in.Operator,
		Source:    in.DrawType,
		Payload: toJSON(map[string]any{
			"winner_participation_id": winner.ID,
			"participant_number":      winner.ParticipantNumber,
			"participants_count":      len(participants),
			"seed":                    seed,
		}),
		TraceID: in.TraceID,
	}
	if err := aud.Insert(ctx, tx); err != nil {
		return nil, err
	}

	// 开奖通知事件（事务内写入 Outbox，确保与开奖结果一致）
	common.Printf("[Draw] 写入 Outbox: topic=%s, raffle_id=%d, trace_id=%s\n",
		model.TopicWinnerSelected, in.RaffleID, in.TraceID)
	if err := model.CreateOutbox(ctx, tx, model.TopicWinnerSelected, fmt.Sprintf("raffle-%d", in.RaffleID), map[string]any{
		"raffle_id":          in.RaffleID,
		"raffle_title":       r.Title,
		"winner_user_id":     winner.UserID,
		"participant_number": winner.ParticipantNumber,
		"draw_type":          in.DrawType,
		"trace_id":           in.TraceID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		common.Printf("[Draw] 提交事务失败: raffle_id=%d, error=%v, trace_id=%s\n",
			in.RaffleID, err, in.TraceID)
		return nil, err
	}

	out := &DrawOutput{
		RaffleID:              in.RaffleID,
		WinnerParticipationID: winner.ID,
		WinnerUserID:          winner.UserID,
		ParticipantNumber:     winner.ParticipantNumber,
		ParticipantsCount:     len(participants),
		Seed:                  seed,
		DrawnAt:               time.Now().UnixMilli(),
	}

	// 结果写入 Redis 缓存，详情页免查库；活动信息缓存失效
	if rdb := infrds.Client(); rdb != nil {
		if b, e := json.Marshal(out); e == nil {
			rdb.Set(context.Background(), infrds.DrawResultKey(in.RaffleID), b, 10*time.Minute)
		}
		rdb.Del(context.Background(), infrds.RaffleInfoKey(in.RaffleID))
	}

	resultLabel = "success"
	common.Printf("draw: raffle=%d winner_pid=%d number=%d pool=%d\n",
		in.RaffleID, winner.ID, winner.ParticipantNumber, len(participants))
	return out, nil
}

// pickWinnerIndex 在 [0, n) 上均匀抽取，使用加密级随机源，
// crypto/rand.Int 内部做拒绝采样，无取模偏差
func pickWinnerIndex(n int) (int, error) {
	if n <= 0 {
		return 0, ErrNoParticipants
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// newDrawSeed 生成开奖随机序列标识，仅供审计溯源，不参与结果复算
func newDrawSeed(raffleID int64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d-%d-%s", raffleID, time.Now().UnixMilli(), uuid.NewString())))
	return hex.EncodeToString(h[:])[:16]
}
