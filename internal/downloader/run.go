package downloader

import (
	"context"
	"fmt"

	"yandl/pkg/planner"
	"yandl/pkg/progress"
)

// Failure is a task that could not be completed
type Failure struct {
	Task planner.Task
	Err  error
}

// Summary aggregates the results of a batch
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Cancelled counts tasks that never ran because the context ended
	Cancelled int
	Removed   int
	Bytes     int64
	Failures  []Failure
}

// Run downloads every task and blocks until the batch is done. The caller's
// goroutine is the only reader of the results channel and the only writer of
// the progress counter. One failed task never stops the others.
func (wp *WorkerPool) Run(ctx context.Context, tasks []planner.Task, reporter progress.Reporter) Summary {
	summary := Summary{Total: len(tasks)}
	if len(tasks) == 0 {
		wp.cancel()
		return summary
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}

	stop := context.AfterFunc(ctx, wp.cancel)
	defer stop()

	counter := progress.NewCounter(CounterLabel(tasks[0].Kind), len(tasks))
	reporter.Start(*counter)

	wp.Start()
	go func() {
		defer wp.Stop()
		for _, task := range tasks {
			if err := wp.Submit(task); err != nil {
				return
			}
		}
	}()

	for result := range wp.Results() {
		if result.Success {
			summary.Succeeded++
			summary.Bytes += result.Size
			if result.Removed {
				summary.Removed++
			}
		} else {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Task: result.Task, Err: result.Error})
		}

		counter.Advance()
		reporter.Update(*counter)
	}
	reporter.Finish(*counter)

	summary.Cancelled = summary.Total - summary.Succeeded - summary.Failed
	return summary
}

// CounterLabel is the progress label for a batch of kind
func CounterLabel(kind planner.Kind) string {
	return fmt.Sprintf("Downloading %s images", kind.Display())
}
