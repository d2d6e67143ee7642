package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/alcomon/internal/errors"
)

const (
	pidFile = "alcomon.pid"
)

// DefaultPath returns the PID file location used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write writes the current process ID to path, or to DefaultPath if path is empty.
// A stale file left by a process that is no longer running is replaced.
func Write(path string) error {
	errFactory := errors.New()
	pid := os.Getpid()
	path = resolve(path)

	if _, err := os.Stat(path); err == nil {
		// PID file exists, check if the process is running
		bytes, err := os.ReadFile(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}

		other, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
		if err != nil {
			return errors.WrapWithData(errors.ErrInternal, err, path)
		}

		if running(other) {
			return errFactory.WithData(errors.ErrAlreadyRunning, other)
		}
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(path string) error {
	errFactory := errors.New()
	path = resolve(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func resolve(path string) string {
	if path == "" {
		return DefaultPath()
	}

	return path
}

func running(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
