package daemon

import (
	"os"
	"os/exec"
	"syscall"
	"time"

	"sentinel/internal/adapters/config"
	"sentinel/internal/store"
	"sentinel/pkg/errors"
)

const (
	stopPollInterval = 100 * time.Millisecond
	stopPollAttempts = 50
)

// Status is the daemon state as observed from outside the process.
type Status struct {
	Running       bool
	PID           int
	PendingAlerts int
}

// Start launches the daemon in the background, detached from the current
// session, with stdout and stderr appended to the daemon log file.
// Returns the new daemon's pid.
func Start(cfg *config.Config) (int, error) {
	if pid, ok := Running(cfg.Data.PIDPath()); ok {
		return pid, errors.Wrapf(errors.ErrAlreadyRunning, "pid %d", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, errors.Wrap(err, "cannot locate executable")
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return 0, errors.Wrap(err, "failed to create data directory")
	}

	logFile, err := os.OpenFile(cfg.Data.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.Wrap(err, "cannot open daemon log")
	}
	defer logFile.Close()

	cmd := exec.Command(exe, "run")
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrap(err, "failed to start daemon")
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

// Stop terminates the running daemon: SIGTERM first, SIGKILL if it has not
// exited within the grace period. The pid file is cleared in every path.
func Stop(cfg *config.Config) (int, error) {
	pidPath := cfg.Data.PIDPath()

	pid, err := ReadPIDFile(pidPath)
	if err != nil {
		return 0, err
	}

	if !Alive(pid) {
		RemovePIDFile(pidPath)
		return 0, errors.Wrapf(errors.ErrNotRunning, "stale pid file for %d", pid)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		RemovePIDFile(pidPath)
		return 0, errors.Wrap(err, "failed to signal daemon")
	}

	for i := 0; i < stopPollAttempts; i++ {
		if !Alive(pid) {
			RemovePIDFile(pidPath)
			return pid, nil
		}
		time.Sleep(stopPollInterval)
	}

	_ = syscall.Kill(pid, syscall.SIGKILL)
	RemovePIDFile(pidPath)
	return pid, nil
}

// GetStatus reports liveness and pending-queue depth without touching the
// running daemon.
func GetStatus(cfg *config.Config) Status {
	var st Status
	if pid, ok := Running(cfg.Data.PIDPath()); ok {
		st.Running = true
		st.PID = pid
	}

	if alerts, err := store.ReadAlertFile(cfg.Data.PendingPath()); err == nil {
		st.PendingAlerts = len(alerts)
	}
	return st
}
