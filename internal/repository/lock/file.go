package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"
)

// fileMode is the permission of the lock file.
const fileMode os.FileMode = 0o644

// ErrHeld is returned when a live process other than this one owns the lock.
var ErrHeld = errors.New("lock is held by another process")

// File is an acquired lock. Release removes it.
type File struct {
	path string
}

// Acquire creates the lock file at path holding the current PID.
// A lock naming a process that no longer runs, or naming this process, is replaced.
func Acquire(path string) (*File, error) {
	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		err := create(path)
		if err == nil {
			return &File{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		owner, alive, err := inspect(path)
		if err != nil {
			return nil, err
		}

		if alive {
			return nil, fmt.Errorf("%w: pid %d owns %s", ErrHeld, owner, path)
		}

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: %s was recreated concurrently", ErrHeld, path)
}

// Path returns the lock file location.
func (f *File) Path() string {
	return f.path
}

// Release removes the lock file. Releasing twice is a no-op.
func (f *File) Release() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}

	return nil
}

func create(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return err
	}

	if _, err = file.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		_ = file.Close()
		_ = os.Remove(path)

		return err
	}

	return file.Close()
}

// inspect reports the PID stored in the lock and whether it belongs to a live foreign process.
// Unreadable or malformed locks are treated as stale.
func inspect(path string) (int, bool, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return pid, false, nil
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return pid, false, fmt.Errorf("look up lock owner %d: %w", pid, err)
	}

	return pid, process != nil, nil
}
