package helper

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTrimDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12.5", "12.50"},
		{"99.999", "100.00"},
		{"100.004", "100.00"},
	}
	for _, c := range cases {
		d, err := decimal.NewFromString(c.in)
		if err != nil {
			t.Fatalf("parse %s: %v", c.in, err)
		}
		if got := TrimDecimal(d); got != c.want {
			t.Fatalf("TrimDecimal(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestRandToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok := RandToken(16)
		if len(tok) != 32 {
			t.Fatalf("len != 32: %s", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token: %s", tok)
		}
		seen[tok] = true
	}
}

func TestCtypeDigit(t *testing.T) {
	if !CtypeDigit("0123456789") {
		t.Fatal("digits should pass")
	}
	if CtypeDigit("") || CtypeDigit("12a") || CtypeDigit("1 2") {
		t.Fatal("non-digit should fail")
	}
}
