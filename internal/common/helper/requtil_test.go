package helper

import (
	"strings"
	"testing"
)

func TestIsJSONContentType(t *testing.T) {
	cases := []struct {
		ct   string
		want bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{" APPLICATION/JSON ", true},
		{"text/json", true},
		{"application/x-www-form-urlencoded", false},
		{"multipart/form-data", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsJSONContentType(c.ct); got != c.want {
			t.Errorf("IsJSONContentType(%q) = %v, want %v", c.ct, got, c.want)
		}
	}
}

func TestIsEmailFormat(t *testing.T) {
	valid := []string{"a@b.com", "user.name+tag@example.co", " padded@mail.org "}
	invalid := []string{"", "no-at-sign", "two@@at.com", "space in@mail.com", "@no.local", "no-domain@"}

	for _, s := range valid {
		if !IsEmailFormat(s) {
			t.Errorf("IsEmailFormat(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsEmailFormat(s) {
			t.Errorf("IsEmailFormat(%q) = true, want false", s)
		}
	}
}

func TestValidateRegister(t *testing.T) {
	cases := []struct {
		name string
		in   RegisterParsed
		ok   bool
	}{
		{"ok minimal", RegisterParsed{RaffleID: 1}, true},
		{"ok with receipt and key", RegisterParsed{RaffleID: 9, ReceiptPath: "uploads/r/a.jpg", IdempotencyKey: "k-1"}, true},
		{"missing raffle id", RegisterParsed{}, false},
		{"negative raffle id", RegisterParsed{RaffleID: -3}, false},
		{"receipt path too long", RegisterParsed{RaffleID: 1, ReceiptPath: strings.Repeat("a", 256)}, false},
		{"idempotency key too long", RegisterParsed{RaffleID: 1, IdempotencyKey: strings.Repeat("k", 65)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := c.in
			if ok, msg := ValidateRegister(&in); ok != c.ok {
				t.Errorf("ValidateRegister(%+v) = %v (%s), want %v", c.in, ok, msg, c.ok)
			}
		})
	}
}

func TestValidateRaffle(t *testing.T) {
	cases := []struct {
		name string
		in   RaffleParsed
		ok   bool
	}{
		{"ok title only", RaffleParsed{Title: "新年抽奖"}, true},
		{"ok full window", RaffleParsed{Title: "t", ParticipationStart: 100, ParticipationEnd: 200}, true},
		{"title trimmed to empty", RaffleParsed{Title: "   "}, false},
		{"title too long", RaffleParsed{Title: strings.Repeat("x", 201)}, false},
		{"negative timestamp", RaffleParsed{Title: "t", ParticipationStart: -1}, false},
		{"end before start", RaffleParsed{Title: "t", ParticipationStart: 200, ParticipationEnd: 100}, false},
		{"end equals start", RaffleParsed{Title: "t", ParticipationStart: 200, ParticipationEnd: 200}, false},
		{"open start is allowed", RaffleParsed{Title: "t", ParticipationEnd: 100}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := c.in
			if ok, msg := ValidateRaffle(&in); ok != c.ok {
				t.Errorf("ValidateRaffle(%+v) = %v (%s), want %v", c.in, ok, msg, c.ok)
			}
		})
	}
}

func TestValidateRaffleTrimsTitle(t *testing.T) {
	in := RaffleParsed{Title: "  抽奖活动  "}
	if ok, _ := ValidateRaffle(&in); !ok {
		t.Fatal("expected valid")
	}
	if in.Title != "抽奖活动" {
		t.Errorf("title not trimmed: %q", in.Title)
	}
}

func TestParseRegisterFromJSON(t *testing.T) {
	out, ok, _ := ParseRegisterFromJSON(strings.NewReader(
		`{"raffle_id": 7, "receipt_path": "uploads/receipts/x.png", "idempotency_key": "abc"}`))
	if !ok {
		t.Fatal("expected parse ok")
	}
	if out.RaffleID != 7 || out.ReceiptPath != "uploads/receipts/x.png" || out.IdempotencyKey != "abc" {
		t.Errorf("unexpected parse result: %+v", out)
	}

	if _, ok, msg := ParseRegisterFromJSON(strings.NewReader(`{bad json`)); ok || msg == "" {
		t.Error("expected failure on malformed json")
	}
}
