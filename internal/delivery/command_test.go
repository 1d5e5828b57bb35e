package delivery_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloudronwatch/internal/config"
	"cloudronwatch/internal/delivery"
	"cloudronwatch/internal/services"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func TestCommandDeliversQuotedMessage(t *testing.T) {
	requireShell(t)
	out := filepath.Join(t.TempDir(), "out.txt")
	d := delivery.NewCommand(delivery.CommandOptions{
		Command: "printf '%s' {MESSAGE} > " + delivery.ShellQuote(out),
		Escape:  config.EscapeShell,
		Timeout: 5 * time.Second,
	})

	message := "Home\nBackup failed: it's `now` $HOME \"quoted\""
	result := d.Deliver(context.Background(), delivery.Message{Kind: delivery.KindNotification, Ref: "1", Body: message})
	if !result.Delivered || result.Err != nil {
		t.Fatalf("expected delivery, got %+v", result)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != message {
		t.Fatalf("message mangled:\n%q\nwant\n%q", got, message)
	}
}

func TestCommandExportsEnvironment(t *testing.T) {
	requireShell(t)
	out := filepath.Join(t.TempDir(), "env.txt")
	d := delivery.NewCommand(delivery.CommandOptions{
		Command: `printf '%s|%s|%s' "$CLOUDRON_SUBJECT" "$CLOUDRON_REF" "$CLOUDRON_MESSAGE" > ` + delivery.ShellQuote(out) + ` # {MESSAGE}`,
		Escape:  config.EscapeURL,
	})
	result := d.Deliver(context.Background(), delivery.Message{Kind: delivery.KindApp, Ref: "Wiki", Subject: "Wiki down", Body: "raw body"})
	if !result.Delivered {
		t.Fatalf("expected delivery, got %+v", result)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "Wiki down|Wiki|raw body" {
		t.Fatalf("unexpected env output %q", got)
	}
}

func TestCommandNonZeroExitFails(t *testing.T) {
	requireShell(t)
	d := delivery.NewCommand(delivery.CommandOptions{Command: "echo boom >&2; exit 3 # {MESSAGE}"})
	result := d.Deliver(context.Background(), delivery.Message{Body: "x"})
	if result.Delivered {
		t.Fatal("expected failure")
	}
	if !errors.Is(result.Err, services.ErrDelivery) {
		t.Fatalf("expected delivery marker, got %v", result.Err)
	}
	for _, want := range []string{"exit status 3", "boom"} {
		if !strings.Contains(result.Err.Error(), want) {
			t.Fatalf("expected %q in %v", want, result.Err)
		}
	}
}

func TestCommandJSONOKCheck(t *testing.T) {
	requireShell(t)
	tests := []struct {
		name      string
		stdout    string
		delivered bool
		wantErr   string
	}{
		{"ok true", `{"ok":true,"result":{}}`, true, ""},
		{"ok false", `{"ok":false,"description":"chat not found"}`, false, "chat not found"},
		{"missing ok", `{"status":"sent"}`, false, "no \"ok\" field"},
		{"not json", `sent`, false, "not JSON"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := delivery.NewCommand(delivery.CommandOptions{
				Command:       "printf '%s' " + delivery.ShellQuote(tc.stdout) + " # {MESSAGE}",
				ResponseCheck: config.ResponseJSONOK,
			})
			result := d.Deliver(context.Background(), delivery.Message{Body: "x"})
			if result.Delivered != tc.delivered {
				t.Fatalf("delivered = %v, want %v (%v)", result.Delivered, tc.delivered, result.Err)
			}
			if tc.wantErr != "" && (result.Err == nil || !strings.Contains(result.Err.Error(), tc.wantErr)) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, result.Err)
			}
		})
	}
}

func TestCommandJSONOKAcceptsLargeEchoedReply(t *testing.T) {
	requireShell(t)
	reply := `{"ok":true,"result":{"text":"` + strings.Repeat("a", 5000) + `"}}`
	d := delivery.NewCommand(delivery.CommandOptions{
		Command:       "printf '%s' " + delivery.ShellQuote(reply) + " # {MESSAGE}",
		ResponseCheck: config.ResponseJSONOK,
		Timeout:       5 * time.Second,
	})
	result := d.Deliver(context.Background(), delivery.Message{Body: "x"})
	if !result.Delivered || result.Err != nil {
		t.Fatalf("expected a 5 KiB ok reply to count as delivered, got %+v", result)
	}
	if len(result.Output) > 4096 {
		t.Fatalf("expected Output capped for logging, got %d bytes", len(result.Output))
	}
}

func TestCommandExitCodeIgnoresStdout(t *testing.T) {
	requireShell(t)
	d := delivery.NewCommand(delivery.CommandOptions{Command: "echo '{\"ok\":false}' # {MESSAGE}"})
	if result := d.Deliver(context.Background(), delivery.Message{Body: "x"}); !result.Delivered {
		t.Fatalf("exit_code check should only look at the exit status: %+v", result)
	}
}

func TestCommandTimeout(t *testing.T) {
	requireShell(t)
	d := delivery.NewCommand(delivery.CommandOptions{Command: "sleep 5 # {MESSAGE}", Timeout: 100 * time.Millisecond})
	result := d.Deliver(context.Background(), delivery.Message{Body: "x"})
	if result.Delivered {
		t.Fatal("expected timeout failure")
	}
	if !errors.Is(result.Err, services.ErrTimeout) || !errors.Is(result.Err, services.ErrDelivery) {
		t.Fatalf("expected timeout and delivery markers, got %v", result.Err)
	}
	if services.Fatal(result.Err) {
		t.Fatal("delivery timeouts must not abort the run")
	}
}
