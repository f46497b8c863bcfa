package wake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

var ErrAlreadyRunning = errors.New("wake: agent already running")

// InstanceLock guarantees a single agent per data directory.
type InstanceLock struct {
	lock *flock.Flock
}

// LockPath is the lock file inside dataDir.
func LockPath(dataDir string) string {
	return filepath.Join(dataDir, "agent.lock")
}

// AcquireInstanceLock takes the lock without waiting. A held lock returns ErrAlreadyRunning.
func AcquireInstanceLock(dataDir string) (*InstanceLock, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("wake: create data dir: %w", err)
	}
	fl := flock.New(LockPath(dataDir))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("wake: lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return &InstanceLock{lock: fl}, nil
}

// WaitInstanceLock keeps trying for up to wait, so a process that is still exiting can let go.
// It returns ErrAlreadyRunning when the lock is still held after wait.
func WaitInstanceLock(ctx context.Context, dataDir string, wait, retry time.Duration) (*InstanceLock, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("wake: create data dir: %w", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	fl := flock.New(LockPath(dataDir))
	ok, err := fl.TryLockContext(waitCtx, retry)
	if ok {
		return &InstanceLock{lock: fl}, nil
	}
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrAlreadyRunning
	}
	return nil, fmt.Errorf("wake: lock %s: %w", fl.Path(), err)
}

// Running reports whether another process holds the lock for dataDir.
func Running(dataDir string) (bool, error) {
	lock, err := AcquireInstanceLock(dataDir)
	if errors.Is(err, ErrAlreadyRunning) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, lock.Release()
}

func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
