package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"github.com/shirou/gopsutil/v3/process"
)

const (
	pidFile = "ddcctl.pid"
)

// DefaultPath returns the PID file location, preferring the user's runtime
// directory.
func DefaultPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, pidFile)
	}
	return filepath.Join(os.TempDir(), pidFile)
}

// Write writes the current process ID to path. It fails with
// ErrAlreadyRunning when path names a live process.
func Write(path string) error {
	errFactory := errors.New()

	if bytes, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
		if err == nil && pid != os.Getpid() && isRunning(pid) {
			return errFactory.WithData(errors.ErrAlreadyRunning, pid)
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(path string) error {
	errFactory := errors.New()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func isRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}
