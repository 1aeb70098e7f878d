// Package daemon implements the process lifecycle: the foreground run loop
// and the start/stop/status control commands that manage it from outside.
package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"sentinel/pkg/errors"
)

// WritePIDFile records pid at path, creating parent directories as needed.
func WritePIDFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create pid directory")
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return errors.Wrap(err, "failed to write pid file")
	}
	return nil
}

// ReadPIDFile returns the recorded pid. A missing file means no daemon was
// started here.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, errors.ErrNotRunning
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to read pid file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.Wrap(errors.ErrInvalidInput, "malformed pid file")
	}
	return pid, nil
}

// RemovePIDFile deletes the pid file, ignoring a missing one.
func RemovePIDFile(path string) {
	_ = os.Remove(path)
}

// Alive reports whether a process with the given pid exists. Signal 0
// probes existence without delivering anything; EPERM still proves the
// process is there.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// Running returns the live pid recorded at path. A stale file pointing at a
// dead process counts as not running.
func Running(path string) (int, bool) {
	pid, err := ReadPIDFile(path)
	if err != nil {
		return 0, false
	}
	if !Alive(pid) {
		return 0, false
	}
	return pid, true
}
