// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobgautier/rjgtoys-progressive/internal/tasks"
)

func Example() {
	sum := tasks.Apply(tasks.Define("sum"), func(p tasks.Progress, n int) (int, error) {
		p.DeclareGoal(n, 0)
		total := 0
		for i := 1; i <= n; i++ {
			if p.Stopping() {
				break
			}
			total += i
			p.Update(1)
		}
		return total, nil
	})

	total, err := sum.Invoke(10)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	s := sum.Sample()
	fmt.Println(total, s.Done, s.Steps, s.PercentDone)
	// Output: 55 10 10 100
}

func ExampleTask_Start() {
	gate := make(chan struct{})
	job := tasks.New("job", func(p tasks.Progress, _ struct{}) (string, error) {
		p.DeclareGoal(4, 1)
		<-gate
		p.Update(3)
		return "done", nil
	})

	if err := job.Start(struct{}{}); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(job.Sample().PercentDone)

	close(gate)
	result, err := job.Wait(context.Background())
	fmt.Println(result, err, job.Sample().PercentDone)
	// Output:
	// 25
	// done <nil> 100
}

func ExampleTask_Start_actionFailed() {
	broken := tasks.New("broken", func(p tasks.Progress, _ int) (int, error) {
		return 0, nil
	})

	err := broken.Start(0)
	fmt.Println(errors.Is(err, tasks.ErrActionFailed))
	// Output: true
}
