package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	present := filepath.Join(t.TempDir(), "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	got := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: "  "},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if !got[0].Available() || got[0].Path != present || got[0].Problem != "" {
		t.Fatalf("expected first requirement resolved, got %#v", got[0])
	}
	if got[1].Available() || !strings.Contains(got[1].Problem, "clearly-not-present-binary") {
		t.Fatalf("expected missing binary reported, got %#v", got[1])
	}
	if got[2].Available() || got[2].Problem != "command not configured" {
		t.Fatalf("unexpected empty requirement status: %#v", got[2])
	}
}

func TestCommandProgram(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"curl -s https://example.com -d text={MESSAGE}", "curl"},
		{"  /usr/local/bin/notify --msg {MESSAGE}", "/usr/local/bin/notify"},
		{"TOKEN=abc LANG=C apprise -b {MESSAGE}", "apprise"},
		{"exec env ntfy publish topic {MESSAGE}", "ntfy"},
		{"nohup mail -s alert root <<< {MESSAGE}", "mail"},
		{"'quoted cmd' {MESSAGE}", ""},
		{"$(which curl) {MESSAGE}", ""},
		{"", ""},
		{"=oops curl", "=oops"},
	}
	for _, tc := range tests {
		if got := CommandProgram(tc.command); got != tc.want {
			t.Errorf("CommandProgram(%q) = %q, want %q", tc.command, got, tc.want)
		}
	}
}
