package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"cloudronwatch/internal/config"
	"cloudronwatch/internal/services"
)

const (
	defaultShell   = "/bin/sh"
	defaultTimeout = 60 * time.Second
	maxOutput      = 4096
)

// maxResponse bounds stdout for the json_ok check. Bot APIs echo the sent
// text back, so the reply can be much larger than maxOutput.
const maxResponse = 1 << 20

// CommandOptions configures a CommandDeliverer.
type CommandOptions struct {
	Command       string
	Shell         string
	Escape        string
	ResponseCheck string
	Timeout       time.Duration
}

// CommandDeliverer runs the operator's shell command once per message.
type CommandDeliverer struct {
	opts CommandOptions
}

// NewCommand builds a CommandDeliverer, filling defaults for empty options.
func NewCommand(opts CommandOptions) *CommandDeliverer {
	if strings.TrimSpace(opts.Shell) == "" {
		opts.Shell = defaultShell
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ResponseCheck == "" {
		opts.ResponseCheck = config.ResponseExitCode
	}
	return &CommandDeliverer{opts: opts}
}

// Deliver runs the command. Success requires exit status 0 and, for the
// json_ok check, stdout decoding to an object with "ok": true.
func (d *CommandDeliverer) Deliver(ctx context.Context, msg Message) Result {
	started := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	line := BuildCommand(d.opts.Command, d.opts.Escape, msg.Body)
	cmd := exec.CommandContext(runCtx, d.opts.Shell, "-c", line)
	cmd.Env = append(os.Environ(),
		"CLOUDRON_MESSAGE="+msg.Body,
		"CLOUDRON_SUBJECT="+msg.Subject,
		"CLOUDRON_REF="+msg.Ref,
		"CLOUDRON_KIND="+string(msg.Kind),
	)
	cmd.WaitDelay = 2 * time.Second

	stdoutLimit := maxOutput
	if d.opts.ResponseCheck == config.ResponseJSONOK {
		stdoutLimit = maxResponse
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedBuffer{buf: &stdout, limit: stdoutLimit}
	cmd.Stderr = &limitedBuffer{buf: &stderr, limit: maxOutput}

	err := cmd.Run()
	result := Result{
		Output:   strings.TrimSpace(truncateBytes(stdout.Bytes(), maxOutput)),
		Duration: time.Since(started),
	}

	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = result.Output
		}
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			result.Err = fmt.Errorf("%w: %w", services.ErrDelivery,
				services.Wrap(services.ErrTimeout, "delivery", "command", fmt.Sprintf("exceeded %s", d.opts.Timeout), nil))
		default:
			result.Err = services.Wrap(services.ErrDelivery, "delivery", "command", exitDetail(err, detail), nil)
		}
		return result
	}

	if d.opts.ResponseCheck == config.ResponseJSONOK {
		if err := checkJSONOK(stdout.Bytes()); err != nil {
			result.Err = services.Wrap(services.ErrDelivery, "delivery", "response check", err.Error(), nil)
			return result
		}
	}

	result.Delivered = true
	return result
}

func exitDetail(err error, detail string) string {
	var exitErr *exec.ExitError
	msg := err.Error()
	if errors.As(err, &exitErr) {
		msg = fmt.Sprintf("exit status %d", exitErr.ExitCode())
	}
	if detail != "" {
		msg += ": " + detail
	}
	return msg
}

// telegramStyleResponse matches bot APIs that answer {"ok": bool, "description": "..."}.
type telegramStyleResponse struct {
	OK          *bool  `json:"ok"`
	Description string `json:"description"`
}

func checkJSONOK(stdout []byte) error {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return errors.New("empty response, expected JSON with \"ok\": true")
	}
	var resp telegramStyleResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return fmt.Errorf("response is not JSON: %v", err)
	}
	if resp.OK == nil {
		return errors.New("response has no \"ok\" field")
	}
	if !*resp.OK {
		if resp.Description != "" {
			return fmt.Errorf("response ok=false: %s", resp.Description)
		}
		return errors.New("response ok=false")
	}
	return nil
}

// limitedBuffer keeps the first limit bytes and silently drops the rest so a
// chatty command cannot exhaust memory.
type limitedBuffer struct {
	buf   *bytes.Buffer
	limit int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if remaining := l.limit - l.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			l.buf.Write(p[:remaining])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}

func truncateBytes(b []byte, limit int) string {
	if len(b) > limit {
		b = b[:limit]
	}
	return string(b)
}
