//go:build !windows

// Package daemon guards against two worker processes running against
// the same store concurrently, via a PID file in the store's
// directory rather than a shared global path.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// PIDFilePath returns the PID file path for a store at storePath.
func PIDFilePath(storePath string) string {
	return storePath + ".pid"
}

// Guard holds a PID file for the process lifetime.
type Guard struct {
	path string
}

// Acquire writes the current PID to storePath's PID file, failing if
// another live process already holds it.
func Acquire(storePath string) (*Guard, error) {
	path := PIDFilePath(storePath)

	if pid := readPID(path); pid != 0 && processAlive(pid) {
		return nil, fmt.Errorf("daemon: worker already running with pid %d (%s)", pid, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("daemon: create pid file directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return nil, fmt.Errorf("daemon: write pid file: %w", err)
	}
	return &Guard{path: path}, nil
}

// Release removes the PID file.
func (g *Guard) Release() {
	if g != nil {
		os.Remove(g.path)
	}
}

func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return pid
}

// processAlive reports whether pid names a live process.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness
	// without actually signalling the process.
	return process.Signal(syscall.Signal(0)) == nil
}
