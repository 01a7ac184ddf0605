package model

import (
	"testing"
	"time"
)

func TestDueForDraw(t *testing.T) {
	now := time.Now().UnixMilli()

	cases := []struct {
		name string
		r    Raffle
		want bool
	}{
		{
			name: "active and past schedule",
			r:    Raffle{Status: 2, ScheduledDrawTime: now - 1},
			want: true,
		},
		{
			name: "scheduled status and past schedule",
			r:    Raffle{Status: 3, ScheduledDrawTime: now - 1},
			want: true,
		},
		{
			name: "exactly at schedule",
			r:    Raffle{Status: 2, ScheduledDrawTime: now},
			want: true,
		},
		{
			name: "schedule in the future",
			r:    Raffle{Status: 2, ScheduledDrawTime: now + 60_000},
			want: false,
		},
		{
			name: "no schedule set",
			r:    Raffle{Status: 2},
			want: false,
		},
		{
			name: "already drawn",
			r:    Raffle{Status: 2, IsDrawn: 1, ScheduledDrawTime: now - 1},
			want: false,
		},
		{
			name: "draft never fires",
			r:    Raffle{Status: 1, ScheduledDrawTime: now - 1},
			want: false,
		},
		{
			name: "completed never fires",
			r:    Raffle{Status: 4, ScheduledDrawTime: now - 1},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DueForDraw(&tc.r, now); got != tc.want {
				t.Fatalf("DueForDraw = %v, want %v", got, tc.want)
			}
		})
	}
}
