// Package lockfile guards a result directory against a second mapexec
// process saving into it at the same time.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Name is the lock file created inside a locked directory.
const Name = ".mapexec.lock"

// ErrLocked is wrapped by Acquire when a live process holds the lock.
var ErrLocked = errors.New("directory is locked")

// LockFile represents an exclusive lock on a file
type LockFile struct {
	path string
	file *os.File
}

// AcquireDir locks dir by creating Name inside it.
func AcquireDir(dir string) (*LockFile, error) {
	return Acquire(filepath.Join(dir, Name))
}

// Acquire creates and locks a lockfile at the given path. A lock left by a
// process that no longer runs is removed and acquisition retried once.
func Acquire(path string) (*LockFile, error) {
	l, err := create(path)
	if err == nil || !os.IsExist(err) {
		return l, err
	}
	if err := removeStale(path); err != nil {
		return nil, err
	}
	l, err = create(path)
	if os.IsExist(err) {
		return nil, fmt.Errorf("%w: %s was re-created by another process", ErrLocked, path)
	}
	return l, err
}

func create(path string) (*LockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write PID to lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to sync lock file: %w", err)
	}
	return &LockFile{path: path, file: f}, nil
}

// removeStale deletes the lock at path unless its owner is still running.
func removeStale(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lock file exists but cannot be read: %s\nRemove it manually if no other instance is running: rm %s", path, path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("lock file contains invalid PID: %s\nRemove it manually if corrupted: rm %s", path, path)
	}
	if processExists(pid) {
		return fmt.Errorf("%w: mapexec (PID %d) is saving results there\nWait for it or remove the lock file if stale: %s", ErrLocked, pid, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stale lock file found (PID %d not running) but cannot be removed: %w\nRemove manually: rm %s", pid, err, path)
	}
	return nil
}

// processExists checks if a process with the given PID is running
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes for the process.
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone) {
		return false
	}
	// EPERM: the process exists but belongs to someone else.
	return true
}

// Release releases the lock and removes the lock file
func (l *LockFile) Release() error {
	if l.file != nil {
		_ = l.file.Close()
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// Path returns the path to the lock file
func (l *LockFile) Path() string {
	return l.path
}
