// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/bobgautier/rjgtoys-progressive/internal/actions"
	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
	"github.com/bobgautier/rjgtoys-progressive/internal/ui"
	"github.com/bobgautier/rjgtoys-progressive/internal/util"
)

// TaskReport is the --json payload of a task command.
type TaskReport struct {
	Result   interface{}    `json:"result"`
	Snapshot tasks.Snapshot `json:"snapshot"`
}

// =============================================================================
// SLEEP
// =============================================================================

func runSleep(e *runEnv) error {
	n, snap, err := runTask(e, e.taskName("sleep"), actions.Sleep, actions.SleepArgs{
		Interval: e.args.Interval,
		Count:    e.args.Count,
	})
	if e.args.JSON {
		return e.printJSON(CmdSleep, n, snap, err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Slept %d of %d steps in %s\n", n, e.args.Count, util.FormatDuration(snap.Elapsed))
	if snap.Stopping && n < e.args.Count {
		fmt.Fprintln(e.stdout, "Stopped early on request.")
	}
	return nil
}

// =============================================================================
// SHELL
// =============================================================================

func runShell(e *runEnv) error {
	res, snap, err := runTask(e, e.taskName("shell"), actions.Shell, actions.ShellArgs{
		Commands: e.args.Commands,
		Shell:    e.args.Shell,
		Dir:      e.args.Dir,
	})

	var cmdErr *actions.CommandError
	if errors.As(err, &cmdErr) {
		res = cmdErr.Partial
	}

	if e.args.JSON {
		return e.printJSON(CmdShell, res, snap, err)
	}

	for _, r := range res.Results {
		fmt.Fprintf(e.stdout, "$ %s (%s)\n", r.Command, util.FormatDuration(r.Duration))
		if r.Output != "" {
			fmt.Fprint(e.stdout, r.Output)
			if !strings.HasSuffix(r.Output, "\n") {
				fmt.Fprintln(e.stdout)
			}
		}
	}
	if res.Stopped {
		fmt.Fprintf(e.stdout, "Stopped after %d of %d commands.\n", len(res.Results), len(e.args.Commands))
	}
	return err
}

// =============================================================================
// TASK DRIVER
// =============================================================================

// runTask starts action as a tracked task, shows its progress until it
// finishes and returns its result with the final snapshot. Cancelling the
// env's context asks the task to stop.
func runTask[A, R any](e *runEnv, name string, action tasks.Action[A, R], arg A) (R, tasks.Snapshot, error) {
	def := tasks.Define(name,
		tasks.WithLogger(e.log),
		tasks.WithPollInterval(e.cfg.Tasks.StartPollInterval.Duration),
		tasks.WithFallbackETA(e.cfg.Tasks.FallbackETA.Duration),
	)
	task := tasks.Apply(def, action)

	reg := tasks.NewRegistry(e.cfg.Monitor.MaxTracked, tasks.WithLogger(e.log))
	if err := reg.Add(task); err != nil {
		var zero R
		return zero, task.Sample(), &CommandError{Command: name, Action: "track", Err: err}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-e.ctx.Done():
			e.log.Info("interrupt received, asking tasks to stop")
			reg.StopAll()
		case <-done:
		}
	}()

	var finish func()
	if chooseMode(e.args, e.cfg, e.stdout) == modeTUI {
		finish = e.showTUI(reg)
	} else {
		finish = e.showPlain(reg)
	}

	if err := task.Start(arg); err != nil {
		// The worker has already exited; collect whatever it left behind.
		result, _ := task.Wait(context.Background())
		finish()
		return result, task.Sample(), err
	}

	result, err := task.Wait(context.Background())
	finish()
	return result, task.Sample(), err
}

// showTUI runs the interactive display in the background. The returned
// function refreshes it one last time and waits for it to exit.
func (e *runEnv) showTUI(reg *tasks.Registry) func() {
	program := tea.NewProgram(ui.NewModel(reg, e.cfg.Monitor.SampleInterval.Duration), tea.WithOutput(e.stdout))

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		if _, err := program.Run(); err != nil {
			e.log.Warn("progress display failed", zap.Error(err))
		}
	}()

	return func() {
		program.Send(ui.Sampled(reg.Samples()))
		<-exited
	}
}

// showPlain reports progress lines on stderr from a Monitor. The returned
// function stops the monitor and reports the finished runs.
func (e *runEnv) showPlain(reg *tasks.Registry) func() {
	reporter := ui.NewReporter(e.stderr, e.cfg.UI.ReportRate, e.color)
	mon := tasks.NewMonitor(reg, e.cfg.Monitor.SampleInterval.Duration,
		tasks.OnSample(reporter.Report),
		tasks.WithMonitorLogger(e.log),
	)
	// Baseline pass, so the run about to start is reported when it ends
	mon.Poll()
	mon.Start()

	return func() {
		mon.Stop()
		mon.Poll()
		for {
			select {
			case n := <-reg.Notifications():
				reporter.Notify(n)
			default:
				return
			}
		}
	}
}

// printJSON writes the task outcome as a JSONResponse and passes err on.
func (e *runEnv) printJSON(cmd Command, result interface{}, snap tasks.Snapshot, err error) error {
	resp := NewJSONResponse(cmd.String(), TaskReport{Result: result, Snapshot: snap}, err)
	if printErr := resp.Print(e.stdout); printErr != nil && err == nil {
		return printErr
	}
	return err
}
