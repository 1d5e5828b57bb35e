package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an executable that delivery needs on PATH.
type Requirement struct {
	Name    string
	Command string
}

// Status is a Requirement after lookup. Path is set when the executable was
// found; Problem explains why it was not.
type Status struct {
	Requirement
	Path    string
	Problem string
}

func (s Status) Available() bool { return s.Path != "" }

// CheckBinaries resolves every requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		out[i] = Status{Requirement: req}
		if req.Command == "" {
			out[i].Problem = "command not configured"
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			out[i].Problem = fmt.Sprintf("%q not found on PATH", req.Command)
			continue
		}
		out[i].Path = path
	}
	return out
}

// wrappers are words that run the next word as the program.
var wrappers = map[string]bool{"exec": true, "env": true, "command": true, "nohup": true}

// CommandProgram returns the executable a shell command line runs, skipping
// VAR=value prefixes and wrappers like env. It returns "" when the first real
// word is not a plain program name, such as a subshell or a quoted string.
func CommandProgram(command string) string {
	for _, word := range strings.Fields(command) {
		if wrappers[word] || isAssignment(word) {
			continue
		}
		if strings.ContainsRune(`"'$({<>|;&`+"`", rune(word[0])) {
			return ""
		}
		return word
	}
	return ""
}

func isAssignment(word string) bool {
	name, _, ok := strings.Cut(word, "=")
	if !ok || name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return r != '_' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9')
	}) < 0
}
