package storage

import (
	"strings"
	"testing"
)

func TestExtAllowed(t *testing.T) {
	allowed := []string{".jpg", ".jpeg", ".png", ".pdf"}
	cases := []struct {
		ext  string
		want bool
	}{
		{".jpg", true},
		{".JPG", true},
		{".png", true},
		{".pdf", true},
		{".exe", false},
		{".php", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := extAllowed(strings.ToLower(tc.ext), allowed); got != tc.want {
			t.Errorf("extAllowed(%q) = %v, want %v", tc.ext, got, tc.want)
		}
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	bad := []string{
		"../etc/passwd",
		"../../secret",
		"receipts/../../x",
	}
	for _, p := range bad {
		full, ok := Resolve(p)
		if ok && strings.Contains(full, "..") {
			t.Errorf("Resolve(%q) allowed escape: %s", p, full)
		}
	}

	if _, ok := Resolve("receipts/2026/09/abc.jpg"); !ok {
		t.Error("Resolve rejected a legal path")
	}
}
