package operation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	StaleLockThreshold = 30 * time.Minute

	// LockRefreshInterval is how often KeepAlive renews a held lock.
	LockRefreshInterval = StaleLockThreshold / 3
)

var (
	ErrLockExists = errors.New("target lock exists: another retrieval may be in progress")
	// ErrLockReleased is returned by Touch after Release.
	ErrLockReleased = errors.New("lock already released")
)

// Lock guards a target directory against concurrent retrievals.
type Lock struct {
	path string
	file *os.File
}

// LockPath returns the lock file used for target. It sits next to target,
// never inside it.
func LockPath(target string) string {
	return filepath.Clean(target) + ".lock"
}

// AcquireLock takes the lock for target. Uses O_CREATE|O_EXCL for atomic
// lock creation; a lock older than StaleLockThreshold is replaced.
func AcquireLock(ctx context.Context, target string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lockPath := LockPath(target)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if stale, _ := isLockStale(lockPath); !stale {
			return nil, ErrLockExists
		}
		// Remove stale lock and retry once
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release releases the lock. Calling it twice is harmless.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}

	return nil
}

// Touch renews the modification time of the lock file, which is what
// staleness is judged by.
func (l *Lock) Touch() error {
	if l.path == "" {
		return ErrLockReleased
	}
	return touch(l.path)
}

// KeepAlive touches the lock every interval until stop is called, so a
// retrieval outliving StaleLockThreshold keeps its lock. stop waits for the
// refresher to exit and must be called before Release.
func (l *Lock) KeepAlive(interval time.Duration) (stop func()) {
	path := l.path
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = touch(path)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func touch(path string) error {
	now := time.Now()
	return os.Chtimes(path, now, now)
}

func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}
