package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"roulette-server/common"
	infmysql "roulette-server/internal/infra/mysql"
	infrds "roulette-server/internal/infra/redis"
	"roulette-server/internal/metrics"
	"roulette-server/internal/model"
	"roulette-server/internal/state"

	"github.com/google/uuid"
)

// RegisterInput 报名入参
type RegisterInput struct {
	RaffleID       int64
	UserID         int64
	ReceiptPath    string
	IdempotencyKey string // 可选，传入则启用幂等保护
	TraceID        string
}

type RegisterOutput struct {
	ParticipationID   int64 `json:"participation_id"`
	ParticipantNumber int   `json:"participant_number"`
}

type ParticipationService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Participation, error)
	ListByRaffle(ctx context.Context, raffleID int64) ([]model.Participation, error)
}

type participationService struct{}

func NewParticipationService() ParticipationService { return &participationService{} }

const (
	// Redis 进行中锁 TTL：吸收瞬时重复提交
	regIdemLockTTL = 30 * time.Second
	// 结果缓存 TTL：覆盖短时重试窗口
	regIdemResultTTL = 1 * time.Minute
)

// ValidateRegistration 报名资格校验（纯函数，行锁事务内调用）
// 依次检查：活动状态 → 报名窗口 → 重复报名 → 凭证要求 → 人数上限
// allow_multiple_entries=1 时跳过重复报名检查，同一用户每次报名领取新号码
func ValidateRegistration(r *model.Raffle, s *model.RaffleSettings, count int, alreadyJoined bool, receiptPath string, nowMs int64) error {
	if !state.AcceptsParticipation(codeToState(r.Status)) {
		return ErrInvalidState
	}
	if r.ParticipationStart > 0 && nowMs < r.ParticipationStart {
		return ErrWindowNotStart
	}
	if r.ParticipationEnd > 0 && nowMs >= r.ParticipationEnd {
		return ErrWindowClosed
	}
	if alreadyJoined && s.AllowMultipleEntries != 1 {
		return ErrAlreadyJoined
	}
	if s.ReceiptRequired == 1 && receiptPath == "" {
		return ErrReceiptRequired
	}
	if s.MaxParticipants > 0 && count >= s.MaxParticipants {
		return ErrRaffleFull
	}
	return nil
}

// Register 报名主流程：
// 幂等锁 → 锁活动行 → 资格校验 → 分配号码 → 落台账 → 通知事件
// 号码分配与满员校验都在 raffles 行锁内完成，满员临界的并发报名在锁上排队，
// 后到者重新计数后被 ErrRaffleFull 拒绝，不会超卖名额。
func (s *participationService) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	if in.RaffleID <= 0 || in.UserID <= 0 {
		return nil, ErrBadRequest
	}

	start := time.Now()
	resultLabel := "fail"
	defer func() { metrics.RecordRegister(resultLabel, start) }()

	// ========== 幂等保护：Redis 进行中锁 + 结果缓存 ==========
	if r := infrds.Client(); r != nil && in.IdempotencyKey != "" {
		lockValue := uuid.New().String()
		lockKey := infrds.RegIdemLockKey(in.IdempotencyKey)

		ok, _ := r.SetNX(ctx, lockKey, lockValue, regIdemLockTTL).Result()
		if !ok {
			// 检查是否有缓存的结果
			if bs, _ := r.Get(ctx, infrds.RegIdemResultKey(in.IdempotencyKey)).Bytes(); len(bs) > 0 {
				var out RegisterOutput
				if json.Unmarshal(bs, &out) == nil {
					common.Printf("[Register] Redis 缓存命中（重复请求）: idem_key=%s, pid=%d, trace_id=%s\n",
						in.IdempotencyKey, out.ParticipationID, in.TraceID)
					resultLabel = "duplicate"
					return &out, nil
				}
			}
			resultLabel = "duplicate"
			return nil, ErrDuplicateInFlight
		}

		// Lua 脚本原子释放锁（仅当锁值匹配时删除）
		defer func() {
			script := `
				if redis.call("get", KEYS[1]) == ARGV[1] then
					return redis.call("del", KEYS[1])
				else
					return 0
				end
			`
			if _, err := r.Eval(context.Background(), script, []string{lockKey}, lockValue).Result(); err != nil {
				common.Printf("[Register] 释放分布式锁失败: idem_key=%s, error=%v, trace_id=%s\n",
					in.IdempotencyKey, err, in.TraceID)
			}
		}()

		// MySQL 幂等键兜底：锁过期后的重放在这里命中
		if ref, err := model.SelectRefByIdemKey(ctx, infmysql.SQLX(), in.IdempotencyKey); err == nil && ref != "" {
			if pid, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
				if p, gerr := model.GetParticipation(ctx, infmysql.SQLX(), pid); gerr == nil {
					resultLabel = "duplicate"
					return &RegisterOutput{ParticipationID: p.ID, ParticipantNumber: p.ParticipantNumber}, nil
				}
			}
		}
	}

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

	// ========== 行锁：串行化同一活动的报名临界区 ==========
	r, err := model.GetRaffleForUpdate(ctx, tx, in.RaffleID)
	if err != nil {
		if isNoRowsError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	settings, err := model.GetSettings(ctx, tx, in.RaffleID)
	if err != nil {
		return nil, err
	}

	count, err := model.CountParticipations(ctx, tx, in.RaffleID)
	if err != nil {
		return nil, err
	}
	already, err := model.ExistsParticipation(ctx, tx, in.RaffleID, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := ValidateRegistration(r, settings, count, already, in.ReceiptPath, time.Now().UnixMilli()); err != nil {
		resultLabel = registerFailLabel(err)
		common.Printf("[Register] 资格校验失败: raffle_id=%d, user_id=%d, reason=%v, trace_id=%s\n",
			in.RaffleID, in.UserID, err, in.TraceID)
		return nil, err
	}

	// 分配单调递增号码（行锁内安全）
	maxNum, err := model.MaxParticipantNumber(ctx, tx, in.RaffleID)
	if err != nil {
		return nil, err
	}

	p := &model.Participation{
		RaffleID:          in.RaffleID,
		UserID:            in.UserID,
		ParticipantNumber: maxNum + 1,
		ReceiptPath:       in.ReceiptPath,
	}
	if err := p.Insert(ctx, tx); err != nil {
		return nil, err
	}

	// 幂等键与通知事件落库（事务内，与报名记录同生共死）
	ref := strconv.FormatInt(p.ID, 10)
	payload := map[string]any{
		"raffle_id":          in.RaffleID,
		"raffle_title":       r.Title,
		"user_id":            in.UserID,
		"participant_number": p.ParticipantNumber,
		"trace_id":           in.TraceID,
	}
	switch {
	case in.IdempotencyKey != "" && settings.NotifyOnRegister == 1:
		err := model.CreateOutboxFromIdem(ctx, tx, in.IdempotencyKey, "register", ref,
			model.TopicParticipantJoin, payload)
		if err != nil && !isMySQLDuplicateKeyError(err) {
			return nil, err
		}
	case in.IdempotencyKey != "":
		k := &model.IdempotencyKey{IdempotencyKey: in.IdempotencyKey, Purpose: "register", Ref: ref}
		if err := k.Insert(ctx, tx); err != nil && !isMySQLDuplicateKeyError(err) {
			return nil, err
		}
	case settings.NotifyOnRegister == 1:
		if err := model.CreateOutbox(ctx, tx, model.TopicParticipantJoin, ref, payload); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		common.Printf("[Register] 提交事务失败: raffle_id=%d, user_id=%d, error=%v, trace_id=%s\n",
			in.RaffleID, in.UserID, err, in.TraceID)
		return nil, err
	}

	out := &RegisterOutput{ParticipationID: p.ID, ParticipantNumber: p.ParticipantNumber}

	// 结果写入 Redis，供重复请求直接返回
	if r := infrds.Client(); r != nil && in.IdempotencyKey != "" {
		if b, e := json.Marshal(out); e == nil {
			r.Set(context.Background(), infrds.RegIdemResultKey(in.IdempotencyKey), b, regIdemResultTTL)
		}
	}

	// 满员即开：本次报名恰好占满名额时触发自动开奖
	// 开奖自身有行锁和 is_drawn 保护，并发触发只会成功一次
	if shouldAutoDrawOnFull(settings, count+1) {
		go func() {
			dctx, cancel := context.WithTimeout(context.Background(), defaultTxTimeout)
			defer cancel()
			if _, err := NewDrawService().Execute(dctx, DrawInput{
				RaffleID: in.RaffleID,
				Operator: "system",
				DrawType: DrawTypeAuto,
				TraceID:  in.TraceID,
			}); err != nil && err != ErrAlreadyDrawn {
				common.Printf("[Register] 满员自动开奖失败: raffle_id=%d, error=%v, trace_id=%s\n",
					in.RaffleID, err, in.TraceID)
			}
		}()
	}

	resultLabel = "success"
	common.Printf("register: raffle=%d user=%d number=%d\n", in.RaffleID, in.UserID, p.ParticipantNumber)
	return out, nil
}

// shouldAutoDrawOnFull 判断报名落库后是否触发满员自动开奖
// newCount 为含本次报名的总人数，不限人数的活动永不触发
func shouldAutoDrawOnFull(s *model.RaffleSettings, newCount int) bool {
	return s.AutoDrawOnFull == 1 && s.MaxParticipants > 0 && newCount >= s.MaxParticipants
}

// registerFailLabel 校验错误到指标标签的映射
func registerFailLabel(err error) string {
	switch err {
	case ErrAlreadyJoined:
		return "duplicate"
	case ErrRaffleFull:
		return "full"
	case ErrWindowNotStart:
		return "window_not_open"
	case ErrWindowClosed:
		return "window_closed"
	case ErrReceiptRequired:
		return "receipt_missing"
	case ErrInvalidState:
		return "invalid_state"
	}
	return "fail"
}

func (s *participationService) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Participation, error) {
	return model.ListParticipationsByUser(ctx, infmysql.SQLX(), userID, limit, offset)
}

func (s *participationService) ListByRaffle(ctx context.Context, raffleID int64) ([]model.Participation, error) {
	return model.ListParticipations(ctx, infmysql.SQLX(), raffleID)
}
