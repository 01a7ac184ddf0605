package service

import (
	"testing"
	"time"

	"roulette-server/internal/model"
)

func baseRaffle(status int8) *model.Raffle {
	return &model.Raffle{ID: 1, Status: status}
}

func baseSettings() *model.RaffleSettings {
	return &model.RaffleSettings{RaffleID: 1, MaxParticipants: 0, ReceiptRequired: 0}
}

func TestValidateRegistrationMatrix(t *testing.T) {
	now := time.Now().UnixMilli()

	cases := []struct {
		name    string
		raffle  *model.Raffle
		setting *model.RaffleSettings
		count   int
		already bool
		receipt string
		wantErr error
	}{
		{
			name:   "active raffle accepts",
			raffle: baseRaffle(2), setting: baseSettings(),
			wantErr: nil,
		},
		{
			name:   "scheduled raffle accepts",
			raffle: baseRaffle(3), setting: baseSettings(),
			wantErr: nil,
		},
		{
			name:   "draft rejects",
			raffle: baseRaffle(1), setting: baseSettings(),
			wantErr: ErrInvalidState,
		},
		{
			name:   "completed rejects",
			raffle: baseRaffle(4), setting: baseSettings(),
			wantErr: ErrInvalidState,
		},
		{
			name:   "cancelled rejects",
			raffle: baseRaffle(5), setting: baseSettings(),
			wantErr: ErrInvalidState,
		},
		{
			name: "window not started",
			raffle: &model.Raffle{ID: 1, Status: 2,
				ParticipationStart: now + 60_000},
			setting: baseSettings(),
			wantErr: ErrWindowNotStart,
		},
		{
			name: "window closed",
			raffle: &model.Raffle{ID: 1, Status: 2,
				ParticipationEnd: now - 1},
			setting: baseSettings(),
			wantErr: ErrWindowClosed,
		},
		{
			name:   "duplicate join",
			raffle: baseRaffle(2), setting: baseSettings(),
			already: true,
			wantErr: ErrAlreadyJoined,
		},
		{
			name:   "repeat join allowed when multiple entries on",
			raffle: baseRaffle(2),
			setting: &model.RaffleSettings{RaffleID: 1, AllowMultipleEntries: 1},
			already: true,
			wantErr: nil,
		},
		{
			name:   "repeat join still counts toward cap",
			raffle: baseRaffle(2),
			setting: &model.RaffleSettings{RaffleID: 1, AllowMultipleEntries: 1, MaxParticipants: 5},
			count:   5,
			already: true,
			wantErr: ErrRaffleFull,
		},
		{
			name:   "receipt required and missing",
			raffle: baseRaffle(2),
			setting: &model.RaffleSettings{RaffleID: 1, ReceiptRequired: 1},
			wantErr: ErrReceiptRequired,
		},
		{
			name:   "receipt required and provided",
			raffle: baseRaffle(2),
			setting: &model.RaffleSettings{RaffleID: 1, ReceiptRequired: 1},
			receipt: "receipts/2026/09/abc.jpg",
			wantErr: nil,
		},
		{
			name:   "cap reached",
			raffle: baseRaffle(2),
			setting: &model.RaffleSettings{RaffleID: 1, MaxParticipants: 10},
			count:   10,
			wantErr: ErrRaffleFull,
		},
		{
			name:   "one slot left",
			raffle: baseRaffle(2),
			setting: &model.RaffleSettings{RaffleID: 1, MaxParticipants: 10},
			count:   9,
			wantErr: nil,
		},
		{
			name:   "zero cap means unlimited",
			raffle: baseRaffle(2), setting: baseSettings(),
			count:   100000,
			wantErr: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRegistration(tc.raffle, tc.setting, tc.count, tc.already, tc.receipt, now)
			if err != tc.wantErr {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateRegistrationChecksStateBeforeCap(t *testing.T) {
	// 已取消的活动即便满员，也应先报状态错误
	r := baseRaffle(5)
	s := &model.RaffleSettings{RaffleID: 1, MaxParticipants: 1}
	err := ValidateRegistration(r, s, 1, false, "", time.Now().UnixMilli())
	if err != ErrInvalidState {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestRegisterFailLabel(t *testing.T) {
	cases := map[error]string{
		ErrAlreadyJoined:   "duplicate",
		ErrRaffleFull:      "full",
		ErrWindowClosed:    "window_closed",
		ErrWindowNotStart:  "window_not_open",
		ErrReceiptRequired: "receipt_missing",
		ErrInvalidState:    "invalid_state",
		ErrBadRequest:      "fail",
	}
	for err, want := range cases {
		if got := registerFailLabel(err); got != want {
			t.Errorf("registerFailLabel(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestShouldAutoDrawOnFull(t *testing.T) {
	cases := []struct {
		name     string
		settings model.RaffleSettings
		newCount int
		want     bool
	}{
		{"触发：恰好满员", model.RaffleSettings{AutoDrawOnFull: 1, MaxParticipants: 10}, 10, true},
		{"触发：超过上限（兜底）", model.RaffleSettings{AutoDrawOnFull: 1, MaxParticipants: 10}, 11, true},
		{"未满不触发", model.RaffleSettings{AutoDrawOnFull: 1, MaxParticipants: 10}, 9, false},
		{"开关关闭不触发", model.RaffleSettings{AutoDrawOnFull: 0, MaxParticipants: 10}, 10, false},
		{"不限人数永不触发", model.RaffleSettings{AutoDrawOnFull: 1, MaxParticipants: 0}, 1000, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := shouldAutoDrawOnFull(&c.settings, c.newCount); got != c.want {
				t.Errorf("shouldAutoDrawOnFull(%+v, %d) = %v, want %v", c.settings, c.newCount, got, c.want)
			}
		})
	}
}
