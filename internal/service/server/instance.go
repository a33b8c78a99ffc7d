package server

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/voice-assistant/internal/logger"
)

// ErrAlreadyRunning is returned when another server process is found.
var ErrAlreadyRunning = errors.New("another assistant-server is already running")

// ensureSingleInstance fails when another process runs the same executable.
func ensureSingleInstance(ctx context.Context) error {
	self, err := ps.FindProcess(os.Getpid())
	if err != nil {
		return fmt.Errorf("inspect own process: %w", err)
	}

	if self == nil {
		logger.Warn(ctx, "Own process not found in the process table, skipping instance check")
		return nil
	}

	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if other, found := findOtherInstance(processes, self.Pid(), self.Executable()); found {
		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, other.Pid())
	}

	return nil
}

// findOtherInstance returns a process other than selfPID running executable.
func findOtherInstance(processes []ps.Process, selfPID int, executable string) (ps.Process, bool) {
	for _, process := range processes {
		if process.Pid() == selfPID {
			continue
		}

		if process.Executable() == executable {
			return process, true
		}
	}

	return nil, false
}
