package state

import "testing"

func TestNextStateLegal(t *testing.T) {
	cases := []struct {
		cur  string
		evt  string
		want string
	}{
		{StateDraft, EvtActivate, StateActive},
		{StateDraft, EvtCancel, StateCancelled},
		{StateActive, EvtSchedule, StateScheduled},
		{StateActive, EvtCompleteDraw, StateCompleted},
		{StateActive, EvtCancel, StateCancelled},
		{StateScheduled, EvtCompleteDraw, StateCompleted},
		{StateScheduled, EvtCancel, StateCancelled},
	}
	for _, c := range cases {
		got, err := NextState(c.cur, c.evt)
		if err != nil {
			t.Fatalf("%s --%s--> error: %v", c.cur, c.evt, err)
		}
		if got != c.want {
			t.Fatalf("%s --%s--> %s, want %s", c.cur, c.evt, got, c.want)
		}
	}
}

func TestNextStateIllegal(t *testing.T) {
	cases := []struct {
		cur string
		evt string
	}{
		{StateDraft, EvtCompleteDraw},
		{StateDraft, EvtSchedule},
		{StateActive, EvtActivate},
		{StateCompleted, EvtCancel},       // 已开奖不可取消
		{StateCompleted, EvtCompleteDraw}, // 不可重复开奖
		{StateCancelled, EvtActivate},     // 取消为终态
		{StateCancelled, EvtCompleteDraw},
	}
	for _, c := range cases {
		got, err := NextState(c.cur, c.evt)
		if err == nil {
			t.Fatalf("%s --%s--> %s should be illegal", c.cur, c.evt, got)
		}
		if got != c.cur {
			t.Fatalf("illegal transition must keep current state, got %s", got)
		}
	}
}

func TestAcceptsParticipation(t *testing.T) {
	if !AcceptsParticipation(StateActive) || !AcceptsParticipation(StateScheduled) {
		t.Fatal("active/scheduled should accept participation")
	}
	for _, s := range []string{StateDraft, StateCompleted, StateCancelled} {
		if AcceptsParticipation(s) {
			t.Fatalf("%s should not accept participation", s)
		}
	}
}
