package runlock

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"cloudronwatch/internal/services"
)

// ErrHeld reports that a marker already exists, whether or not its owner is
// still alive. Stale markers require manual cleanup (lock clear).
var ErrHeld = fmt.Errorf("%w: another run holds the lock", services.ErrLocked)

// Lock is a held run lock.
type Lock struct {
	mu       sync.Mutex
	path     string
	flock    *flock.Flock
	released bool
}

// Info describes the marker at a path, as reported by Inspect.
type Info struct {
	Path   string
	Exists bool
	// Held is true when a live process owns the advisory lock on the marker.
	Held    bool
	PID     int
	Started time.Time
	RunID   string
}

// Stale reports a marker left behind by a run that no longer exists.
func (i Info) Stale() bool {
	return i.Exists && !i.Held
}

// Acquire creates the marker at path. It fails with ErrHeld when the marker
// already exists or another process wins the race to create it.
func Acquire(path, runID string) (*Lock, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w (marker %s)", ErrHeld, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "stat marker", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "create lock directory", filepath.Dir(path), err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "lock marker", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (marker %s)", ErrHeld, path)
	}

	contents := fmt.Sprintf("pid=%d\nstarted=%s\nrun=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339), runID)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		_ = os.Remove(path)
		_ = fl.Unlock()
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "write marker", path, err)
	}

	return &Lock{path: path, flock: fl}, nil
}

// Path returns the marker location.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the marker and drops the advisory lock. It is safe to call
// more than once.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true

	var errs []error
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove marker: %w", err))
	}
	if err := l.flock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("unlock marker: %w", err))
	}
	return errors.Join(errs...)
}

// Inspect reports whether a marker exists at path and whether its owner is
// alive. It never modifies the marker.
func Inspect(path string) (Info, error) {
	info := Info{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, nil
		}
		return info, fmt.Errorf("read marker: %w", err)
	}
	info.Exists = true
	parseMarker(string(data), &info)

	peek := flock.New(path, flock.SetFlag(os.O_RDONLY))
	defer peek.Close()
	ok, err := peek.TryLock()
	if err != nil {
		return info, fmt.Errorf("peek marker: %w", err)
	}
	info.Held = !ok
	return info, nil
}

// Clear removes a stale marker. A marker whose owner is alive is only removed
// when force is set.
func Clear(path string, force bool) (Info, error) {
	info, err := Inspect(path)
	if err != nil {
		return info, err
	}
	if !info.Exists {
		return info, nil
	}
	if info.Held && !force {
		return info, fmt.Errorf("%w (pid %d); pass --force to remove anyway", ErrHeld, info.PID)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return info, fmt.Errorf("remove marker: %w", err)
	}
	return info, nil
}

func parseMarker(data string, info *Info) {
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			if pid, err := strconv.Atoi(value); err == nil {
				info.PID = pid
			}
		case "started":
			if ts, err := time.Parse(time.RFC3339, value); err == nil {
				info.Started = ts
			}
		case "run":
			info.RunID = value
		}
	}
}
