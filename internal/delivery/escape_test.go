package delivery_test

import (
	"testing"

	"cloudronwatch/internal/delivery"
)

func TestEscapeModes(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		command string
		message string
		want    string
	}{
		{"auto with curl uses url", "auto", "curl -d text={MESSAGE}", "a b&c", "a%20b%26c"},
		{"auto without curl escapes backticks", "auto", "notify {MESSAGE}", "run `id`", "run \\`id\\`"},
		{"empty mode behaves like auto", "", "curl {MESSAGE}", "x/y", "x%2Fy"},
		{"url", "url", "send {MESSAGE}", "line1\nline2", "line1%0Aline2"},
		{"shell", "shell", "echo {MESSAGE}", "it's $HOME", `'it'"'"'s $HOME'`},
		{"backtick", "backtick", "curl {MESSAGE}", "`x`", "\\`x\\`"},
		{"none", "none", "echo {MESSAGE}", "raw `x`", "raw `x`"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := delivery.Escape(tc.mode, tc.command, tc.message); got != tc.want {
				t.Fatalf("Escape = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildCommandReplacesEveryPlaceholder(t *testing.T) {
	got := delivery.BuildCommand("a {MESSAGE} b {MESSAGE}", "none", "m")
	if got != "a m b m" {
		t.Fatalf("unexpected command %q", got)
	}
}

func TestResolveEscape(t *testing.T) {
	if got := delivery.ResolveEscape("AUTO", "/usr/bin/curl x"); got != "url" {
		t.Fatalf("unexpected mode %q", got)
	}
	if got := delivery.ResolveEscape("shell", "curl x"); got != "shell" {
		t.Fatalf("explicit mode must win, got %q", got)
	}
}
