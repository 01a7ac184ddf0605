package service

import (
	"encoding/json"
	"errors"
	"strings"

	"roulette-server/internal/state"
)

// 业务错误定义，控制器层据此映射 HTTP 状态与业务码
var (
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateInFlight = errors.New("duplicate request in flight")

	// 开奖失败的三种类型化结果
	ErrAlreadyDrawn   = errors.New("raffle already drawn")
	ErrNotAvailable   = errors.New("raffle not available for draw")
	ErrNoParticipants = errors.New("raffle has no participants")

	// 报名失败
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrWindowNotStart  = errors.New("participation window not started")
	ErrWindowClosed    = errors.New("participation window closed")
	ErrRaffleFull      = errors.New("raffle participant cap reached")
	ErrAlreadyJoined   = errors.New("user already joined this raffle")
	ErrReceiptRequired = errors.New("receipt upload required")

	// 账户
	ErrEmailTaken        = errors.New("email already registered")
	ErrBadCredentials    = errors.New("invalid email or password")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
	ErrCaptchaMismatch   = errors.New("captcha mismatch")
	ErrWinnerNotBound    = errors.New("participation is not a winner")
)

// 活动状态数值枚举与状态机字符串的互换
// 1=draft 2=active 3=scheduled 4=completed 5=cancelled
func codeToState(code int8) string {
	switch code {
	case 1:
		return state.StateDraft
	case 2:
		return state.StateActive
	case 3:
		return state.StateScheduled
	case 4:
		return state.StateCompleted
	case 5:
		return state.StateCancelled
	}
	return ""
}

func stateToCode(s string) int8 {
	switch s {
	case state.StateDraft:
		return 1
	case state.StateActive:
		return 2
	case state.StateScheduled:
		return 3
	case state.StateCompleted:
		return 4
	case state.StateCancelled:
		return 5
	}
	return 0
}

func toJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// isMySQLDuplicateKeyError 判断是否为 MySQL 唯一键冲突错误
func isMySQLDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	// MySQL 错误码 1062: Duplicate entry
	return strings.Contains(errMsg, "Error 1062") ||
		strings.Contains(errMsg, "Duplicate entry") ||
		strings.Contains(errMsg, "duplicate key")
}

func isNoRowsError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no rows")
}
