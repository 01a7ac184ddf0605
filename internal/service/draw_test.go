package service

import (
	"testing"
)

func TestPickWinnerIndexBounds(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10, 97, 1000} {
		for i := 0; i < 50; i++ {
			idx, err := pickWinnerIndex(n)
			if err != nil {
				t.Fatalf("pickWinnerIndex(%d): %v", n, err)
			}
			if idx < 0 || idx >= n {
				t.Fatalf("pickWinnerIndex(%d) = %d, out of range", n, idx)
			}
		}
	}
}

func TestPickWinnerIndexSingle(t *testing.T) {
	// 单人参与必中
	for i := 0; i < 10; i++ {
		idx, err := pickWinnerIndex(1)
		if err != nil {
			t.Fatalf("pickWinnerIndex(1): %v", err)
		}
		if idx != 0 {
			t.Fatalf("pickWinnerIndex(1) = %d, want 0", idx)
		}
	}
}

func TestPickWinnerIndexEmptyPool(t *testing.T) {
	if _, err := pickWinnerIndex(0); err != ErrNoParticipants {
		t.Fatalf("err = %v, want ErrNoParticipants", err)
	}
	if _, err := pickWinnerIndex(-5); err != ErrNoParticipants {
		t.Fatalf("err = %v, want ErrNoParticipants", err)
	}
}

func TestPickWinnerIndexCoversPool(t *testing.T) {
	// 小池子多次抽取应能覆盖每个下标（概率意义上，2000次足够）
	const n = 5
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		idx, err := pickWinnerIndex(n)
		if err != nil {
			t.Fatal(err)
		}
		seen[idx] = true
		if len(seen) == n {
			return
		}
	}
	t.Fatalf("after 2000 draws only saw %d of %d indices", len(seen), n)
}

func TestNormalizeDrawType(t *testing.T) {
	cases := map[string]string{
		DrawTypeManual:    DrawTypeManual,
		DrawTypeScheduled: DrawTypeScheduled,
		DrawTypeAuto:      DrawTypeAuto,
		"":                DrawTypeManual,
		"bogus":           DrawTypeManual,
	}
	for in, want := range cases {
		if got := normalizeDrawType(in); got != want {
			t.Fatalf("normalizeDrawType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewDrawSeedFormat(t *testing.T) {
	seed := newDrawSeed(42)
	if len(seed) != 16 {
		t.Fatalf("seed length = %d, want 16", len(seed))
	}
	for _, c := range seed {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("seed contains non-hex char: %q", c)
		}
	}
}

func TestNewDrawSeedUnique(t *testing.T) {
	a := newDrawSeed(1)
	b := newDrawSeed(1)
	if a == b {
		t.Fatal("seeds for successive draws should differ")
	}
}

func TestStateCodeRoundTrip(t *testing.T) {
	for code := int8(1); code <= 5; code++ {
		s := codeToState(code)
		if s == "" {
			t.Fatalf("codeToState(%d) empty", code)
		}
		if got := stateToCode(s); got != code {
			t.Fatalf("stateToCode(%s) = %d, want %d", s, got, code)
		}
	}
	if codeToState(0) != "" || stateToCode("bogus") != 0 {
		t.Fatal("unknown values should map to zero values")
	}
}
