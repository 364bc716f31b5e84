package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gofrs/flock"

	"leanup/internal/ports"
	"leanup/internal/types"
)

// lockRetryInterval is the fixed poll interval while another process
// holds the install lock. Installs are short-lived, so no backoff.
const lockRetryInterval = time.Second

// installLock is an exclusive inter-process lock on a toolchain's
// install directory. The OS file lock on the sibling lock file is
// released automatically when the holder dies, so a crashed installer
// never blocks later installs; the holder's PID is written into the
// file purely for diagnostics.
type installLock struct {
	flock *flock.Flock
}

// acquireInstallLock takes the lock, polling until the current holder
// releases it. A "waiting for PID" event is emitted once so the user
// can diagnose which process holds it.
func acquireInstallLock(ctx context.Context, path string, observer ports.ObserverPort) (*installLock, error) {
	lock := flock.New(path)
	warned := false
	for {
		locked, err := lock.TryLock()
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to acquire lock file '%s'", path)).
				WithCause(err)
		}
		if locked {
			writeLockHolder(path)
			return &installLock{flock: lock}, nil
		}
		if !warned {
			observer.OnEvent(types.Event{
				Kind: types.EventWaitingForLock,
				Path: path,
				PID:  lockHolderPID(path),
			})
			warned = true
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// release drops the OS lock. The lock file itself stays behind: a
// waiter may already hold an open handle on it, and removing it would
// let a third process lock a fresh file concurrently.
func (l *installLock) release() {
	l.flock.Unlock()
}

// writeLockHolder records the holder's PID in the lock file. Best
// effort: the OS lock carries the exclusion, the PID is diagnostics.
func writeLockHolder(path string) {
	_ = os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func lockHolderPID(path string) int {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0
	}
	return pid
}
