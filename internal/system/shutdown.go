// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package system

import (
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// DefaultShutdownCommand powers the Pi off through systemd.
var DefaultShutdownCommand = []string{"/usr/bin/sudo", "/usr/bin/systemctl", "poweroff"}

// CommandShutdown powers the host off by running an external command.
type CommandShutdown struct {
	Command []string
	// DryRun logs the command instead of running it.
	DryRun bool
	Logger *log.Logger
}

// Execute runs the poweroff command. It is deliberately not tied to the
// agent's context: a shutdown that has been decided must not be cancelled
// by the agent unwinding.
func (s *CommandShutdown) Execute() error {
	if len(s.Command) == 0 {
		return errors.New("shutdown: no command configured")
	}
	line := strings.Join(s.Command, " ")
	if s.DryRun {
		s.logf("shutdown: dry run, not executing %q", line)
		return nil
	}

	s.logf("shutdown: executing %q", line)
	out, err := exec.Command(s.Command[0], s.Command[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("shutdown %q: %w (output: %s)", line, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *CommandShutdown) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
