package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cloudronwatch/internal/cloudron"
	"cloudronwatch/internal/config"
	"cloudronwatch/internal/delivery"
	"cloudronwatch/internal/deps"
	"cloudronwatch/internal/runlock"
	"cloudronwatch/internal/services"
)

// NotificationLister is the read-only API call used to reach the server.
type NotificationLister interface {
	ListNotifications(ctx context.Context) ([]cloudron.Notification, error)
}

// CheckCloudron verifies that the API is reachable and the token is accepted.
// It performs a single read-only request with a 15-second ceiling.
func CheckCloudron(ctx context.Context, api NotificationLister) Result {
	const name = "Cloudron API"

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	notifications, err := api.ListNotifications(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	unread := 0
	for _, n := range notifications {
		if !n.Acknowledged {
			unread++
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%d unread notifications)", unread)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLock reports whether the next run could take the lock.
func CheckLock(path string) Result {
	const name = "Run lock"

	info, err := runlock.Inspect(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	switch {
	case !info.Exists:
		return Result{Name: name, Passed: true, Detail: "free"}
	case info.Held:
		return Result{Name: name, Detail: fmt.Sprintf("held by running pid %d (run %s)", info.PID, valueOr(info.RunID, "unknown"))}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("stale marker from pid %d; remove with 'cloudronwatch lock clear'", info.PID)}
	}
}

// CheckDelivery validates the configured delivery channel without sending
// anything. For shell commands it checks that the shell and the command's
// program are installed.
func CheckDelivery(cfg *config.Config) []Result {
	if cfg.UsesURLDelivery() {
		const name = "Delivery URL"
		if _, err := delivery.NewShoutrrr(cfg.Notification.URL); err != nil {
			return []Result{{Name: name, Detail: err.Error()}}
		}
		return []Result{{Name: name, Passed: true, Detail: "valid service URL"}}
	}

	requirements := []deps.Requirement{
		{Name: "Shell", Command: cfg.Notification.Shell},
	}
	if program := deps.CommandProgram(cfg.Notification.Command); program != "" {
		requirements = append(requirements, deps.Requirement{Name: "Delivery command", Command: program})
	}

	results := make([]Result, 0, len(requirements))
	for _, status := range deps.CheckBinaries(requirements) {
		if status.Available() {
			results = append(results, Result{Name: status.Name, Passed: true, Detail: status.Path})
			continue
		}
		results = append(results, Result{Name: status.Name, Detail: status.Problem})
	}
	return results
}

func summarizeAPIError(err error) string {
	switch {
	case errors.Is(err, services.ErrAuthentication):
		return "token rejected (check cloudron.token)"
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "request timed out (Cloudron unreachable)"
	case errors.Is(err, services.ErrProtocol):
		return "unexpected response (is the domain a Cloudron dashboard?)"
	default:
		return err.Error()
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
