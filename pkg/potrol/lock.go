package potrol

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
)

const lockPollInterval = 200 * time.Millisecond

// LockPath returns the advisory lock file for a workbook: a sidecar named
// "<workbook-name>.lock" in the same directory.
func LockPath(path string) string {
	return path + ".lock"
}

// LockGuard represents a held workbook write lock. Release is idempotent and
// must run on every exit path, normally via defer.
type LockGuard struct {
	path string
	file *os.File
	once sync.Once
}

// Release closes and deletes the lock file.
func (g *LockGuard) Release() {
	g.once.Do(func() {
		if g.file != nil {
			g.file.Close()
		}
		os.Remove(g.path)
	})
}

// AcquireLock takes the cross-process write lock for a workbook. The lock is
// the mere existence of the sidecar file, created with O_EXCL; its content
// (pid and timestamp) is diagnostic only. A lock file older than staleAfter
// is treated as left over from a crashed holder and reclaimed. When timeout
// elapses first, the error wraps ErrWorkbookBusy.
//
// The lock coordinates only instances of this application. A human with the
// file open in a spreadsheet editor is detected later, at save time.
func AcquireLock(path string, timeout, staleAfter time.Duration) (*LockGuard, error) {
	lockPath := LockPath(path)
	if timeout < 100*time.Millisecond {
		timeout = 100 * time.Millisecond
	}
	if staleAfter < time.Second {
		staleAfter = time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(file, "pid=%d at %s\n", os.Getpid(), time.Now().Format(time.RFC3339))
			return &LockGuard{path: lockPath, file: file}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, &OpError{Op: "lock", Path: path, Err: err}
		}

		if info, statErr := os.Stat(lockPath); statErr == nil {
			if time.Since(info.ModTime()) >= staleAfter {
				if os.Remove(lockPath) == nil {
					continue
				}
			}
		}

		if time.Now().After(deadline) {
			return nil, &OpError{Op: "lock", Path: path, Err: ErrWorkbookBusy}
		}
		time.Sleep(lockPollInterval)
	}
}
