package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/portforge/internal/assemble"
	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/resolve"
)

// Task is one unit of batch work.
type Task struct {
	ID  string
	Row resolve.TaskRow
}

// Result is the outcome for one task. Document is nil when Err is set.
type Result struct {
	TaskID   string
	Document *assemble.Document
	Resolved *resolve.ResolvedSet
	Err      error
}

// Driver runs tasks through the pipeline.
type Driver struct {
	Registry *registry.Registry
	Setup    []assemble.SetupBlock
	Code     map[string][]assemble.CodeCandidate

	// Workers bounds pipeline concurrency. Values below 1 mean serial.
	Workers int

	Logger *zap.Logger
}

// servicesField is the task-row cell carrying an explicit service list.
const servicesField = "services_needed"

// Run processes every task and returns one result per task, in task order.
// Individual task failures (including panics in the pipeline) land in the
// task's Result; Run itself only fails on context cancellation.
func (d *Driver) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := d.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	runID := uuid.NewString()
	logger.Info("batch run starting",
		zap.String("run_id", runID),
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", workers))

	results := make([]Result, len(tasks))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = d.runOne(logger, tasks[i])
			}
		}()
	}

	var runErr error
feed:
	for i := range tasks {
		select {
		case indexes <- i:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("batch run finished",
		zap.String("run_id", runID),
		zap.Int("tasks", len(tasks)),
		zap.Int("failed", failed))

	return results, nil
}

// runOne resolves and assembles a single task. A panic anywhere in the
// pipeline becomes that task's error instead of killing the pool.
func (d *Driver) runOne(logger *zap.Logger, task Task) (res Result) {
	res.TaskID = task.ID
	defer func() {
		if r := recover(); r != nil {
			res.Document = nil
			res.Err = fmt.Errorf("task %q panicked: %v", task.ID, r)
			logger.Error("task panicked", zap.String("task_id", task.ID), zap.Any("panic", r))
		}
	}()

	requested := registry.SplitServices(task.Row.Get(servicesField))
	if len(requested) == 0 {
		requested = resolve.FromInputs(d.Registry, task.Row)
	}

	res.Resolved = resolve.Resolve(d.Registry, requested, task.Row)
	if !res.Resolved.Issues.Empty() {
		logger.Warn("task has preflight issues",
			zap.String("task_id", task.ID),
			zap.Strings("unknown_services", res.Resolved.Issues.UnknownServices),
			zap.Strings("missing_inputs", res.Resolved.Issues.MissingInputs))
	}

	doc, err := assemble.Assemble(assemble.Params{
		TaskID:   task.ID,
		Registry: d.Registry,
		Resolved: res.Resolved,
		Row:      task.Row,
		Setup:    d.Setup,
		Code:     d.Code,
	})
	if err != nil {
		res.Err = err
		logger.Error("task failed", zap.String("task_id", task.ID), zap.Error(err))
		return res
	}

	res.Document = doc
	logger.Debug("task assembled",
		zap.String("task_id", task.ID),
		zap.Strings("services", res.Resolved.Services),
		zap.Int("blocks", len(doc.Blocks)))
	return res
}
