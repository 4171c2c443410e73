package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ownerLock marks that this host owns a launched backend.
type ownerLock struct {
	lock *flock.Flock
}

func acquireOwnerLock(path string) (*ownerLock, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire owner lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("owner lock %s held by another instance", path)
	}
	return &ownerLock{lock: lock}, nil
}

func (l *ownerLock) release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// OwnerLockHeld reports whether another process currently holds the owner
// lock at path. A missing lock file means nobody holds it.
func OwnerLockHeld(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat owner lock: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe owner lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}
