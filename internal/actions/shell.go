// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package actions

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
)

// =============================================================================
// SHELL ACTION
// =============================================================================

// ShellArgs configures Shell.
type ShellArgs struct {
	// Commands are run in order, one step each
	Commands []string

	// Shell overrides shell detection (e.g. "sh", "bash", "powershell")
	Shell string

	// Dir is the working directory ("" = current)
	Dir string

	// Env is appended to the inherited environment
	Env []string
}

// CommandResult is the captured output of one command.
type CommandResult struct {
	Command  string        `json:"command"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// ShellResult collects the results of the commands that ran.
type ShellResult struct {
	Results []CommandResult `json:"results"`
	Stopped bool            `json:"stopped"`
}

// CommandError reports the command that failed. Partial holds the results
// of every command up to and including the failed one.
type CommandError struct {
	Index   int
	Command string
	Err     error
	Partial ShellResult
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s) failed: %v", e.Index+1, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Shell runs each command through a shell. A failing command ends the run
// with a CommandError; a stop request is honored between commands.
func Shell(p tasks.Progress, args ShellArgs) (ShellResult, error) {
	shell, flag := resolveShell(args.Shell)

	p.DeclareGoal(len(args.Commands), 0)

	var result ShellResult
	for i, command := range args.Commands {
		if p.Stopping() {
			result.Stopped = true
			return result, nil
		}

		started := time.Now()
		output, err := runCommand(shell, flag, command, args)
		result.Results = append(result.Results, CommandResult{
			Command:  command,
			Output:   output,
			Duration: time.Since(started),
		})
		if err != nil {
			return result, &CommandError{Index: i, Command: command, Err: err, Partial: result}
		}
		p.Update(1)
	}
	return result, nil
}

// runCommand executes one command and returns its combined output.
// Note: stdout/stderr interleaving is non-deterministic because the pipes
// are read concurrently.
func runCommand(shell, flag, command string, args ShellArgs) (string, error) {
	cmd := exec.Command(shell, flag, command)
	cmd.Dir = args.Dir
	if len(args.Env) > 0 {
		cmd.Env = append(cmd.Environ(), args.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command: %w", err)
	}

	var out lineBuffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.stream(stdout, "")
	}()
	go func() {
		defer wg.Done()
		out.stream(stderr, "[STDERR] ")
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}

// resolveShell picks the shell binary and its "run this string" flag.
func resolveShell(override string) (string, string) {
	if override != "" {
		return override, shellFlag(override)
	}
	if _, err := exec.LookPath("bash"); err == nil {
		return "bash", "-c"
	}
	if _, err := exec.LookPath("sh"); err == nil {
		return "sh", "-c"
	}
	if _, err := exec.LookPath("powershell"); err == nil {
		return "powershell", "-Command"
	}
	return "cmd", "/c"
}

func shellFlag(shell string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(shell), filepath.Ext(shell)))
	switch base {
	case "powershell", "pwsh":
		return "-Command"
	case "cmd":
		return "/c"
	default:
		return "-c"
	}
}

// =============================================================================
// OUTPUT CAPTURE
// =============================================================================

// lineBuffer accumulates lines from several readers.
type lineBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *lineBuffer) stream(r io.Reader, prefix string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		b.mu.Lock()
		b.sb.WriteString(prefix)
		b.sb.WriteString(scanner.Text())
		b.sb.WriteString("\n")
		b.mu.Unlock()
	}
}

func (b *lineBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}
