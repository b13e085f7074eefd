// Package process implements the liveness/ownership guard for the driver
// binary described in SPEC_FULL.md §4.13: a pidfile that detects a prior
// instance, reaps it if it's gone stale, and is removed on clean shutdown.
//
// Grounded on cmd/bud/main.go's checkPidFile: read pid, check liveness via
// gopsutil/v3/process, stale-file cleanup, write-then-defer-remove. This
// version drops the interactive kill-or-quit prompt (this module is a
// library/driver pair, not an operator-attended Discord bot) and always
// treats a live conflicting process as a startup error the caller decides
// how to handle.
package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/vthunder/life/internal/logging"
)

// PIDFile guards a single named binary's liveness via a pid file.
type PIDFile struct {
	path string
}

// New returns a PIDFile rooted at filepath.Join(dir, name+".pid").
func New(dir, name string) *PIDFile {
	return &PIDFile{path: filepath.Join(dir, name+".pid")}
}

// Acquire checks for an existing live process recorded in the pid file. If
// one is found still running, it returns an error naming the PID so the
// caller can decide whether to proceed; if the file is stale (process gone
// or not a match) it is cleaned up and replaced with the current PID.
// Acquire returns a release func that removes the pid file; callers should
// defer it only once Acquire returns a nil error.
func (p *PIDFile) Acquire(selfName string) (release func(), err error) {
	if data, rerr := os.ReadFile(p.path); rerr == nil {
		pidStr := strings.TrimSpace(string(data))
		if pid, perr := strconv.Atoi(pidStr); perr == nil {
			if proc, nerr := process.NewProcess(int32(pid)); nerr == nil {
				running, _ := proc.IsRunning()
				name, _ := proc.Name()
				if running && strings.Contains(name, selfName) {
					return nil, fmt.Errorf("process: another %s instance is running (pid %d)", selfName, pid)
				}
			}
		}
		os.Remove(p.path)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return nil, fmt.Errorf("process: create pidfile dir: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("process: write pidfile: %w", err)
	}
	logging.Info("process", "pidfile created: %s (pid=%d)", p.path, os.Getpid())

	return func() {
		os.Remove(p.path)
		logging.Info("process", "pidfile removed")
	}, nil
}
