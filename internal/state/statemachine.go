package state

import "fmt"

// State 抽奖活动状态
const (
	StateDraft     = "draft"     // 草稿，未开放报名
	StateActive    = "active"    // 进行中，接受报名
	StateScheduled = "scheduled" // 已排期定时开奖，仍接受报名
	StateCompleted = "completed" // 已开奖（终态）
	StateCancelled = "cancelled" // 已取消（终态，不可恢复）
)

// Event 活动事件
const (
	EvtActivate     = "activate"      // 管理员上线活动
	EvtSchedule     = "schedule"      // 设置定时开奖
	EvtCompleteDraw = "complete_draw" // 开奖成功（仅开奖引擎触发）
	EvtCancel       = "cancel"        // 管理员取消
)

// NextState 根据当前状态与事件计算下一个状态，非法转换报错
func NextState(cur, evt string) (string, error) {
	switch cur {
	case StateDraft:
		switch evt {
		case EvtActivate:
			return StateActive, nil
		case EvtCancel:
			return StateCancelled, nil
		}
	case StateActive:
		switch evt {
		case EvtSchedule:
			return StateScheduled, nil
		case EvtCompleteDraw:
			return StateCompleted, nil
		case EvtCancel:
			return StateCancelled, nil
		}
	case StateScheduled:
		switch evt {
		case EvtCompleteDraw:
			return StateCompleted, nil
		case EvtCancel:
			return StateCancelled, nil
		}
	}
	return cur, fmt.Errorf("invalid transition: %s --%s--> ?", cur, evt)
}

// AcceptsParticipation 判断该状态是否可接受新报名
func AcceptsParticipation(s string) bool {
	return s == StateActive || s == StateScheduled
}
