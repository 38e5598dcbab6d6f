package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/portforge/internal/assemble"
	"github.com/roach88/portforge/internal/batch"
	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/store"
)

// loadRegistry loads the spec directory, reporting load errors through the
// formatter. The returned ExitError carries ExitCommandError when nothing
// could be loaded at all and ExitFailure for spec-level errors.
func loadRegistry(formatter *OutputFormatter, specsDir string, mode registry.LoadMode) (*registry.LoadResult, error) {
	result, errs := registry.LoadDir(specsDir, mode)

	if result == nil || result.Registry == nil {
		code, message := registry.ErrCodeGeneric, "failed to load specs"
		if len(errs) > 0 {
			var loadErr *registry.LoadError
			if errors.As(errs[0], &loadErr) {
				code, message = loadErr.Code, loadErr.Message
			} else {
				message = errs[0].Error()
			}
		}
		formatter.Error(code, message, nil)
		return nil, NewExitError(ExitCommandError, message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, specsDir)
	for _, w := range result.Warnings {
		formatter.VerboseLog("Warning: %s", w.Message)
	}

	if len(errs) > 0 {
		for _, err := range errs {
			var loadErr *registry.LoadError
			if errors.As(err, &loadErr) {
				formatter.Error(loadErr.Code, loadErr.Message, nil)
			} else {
				formatter.Error(registry.ErrCodeGeneric, err.Error(), nil)
			}
		}
		return nil, NewExitError(ExitFailure, fmt.Sprintf("%d spec error(s)", len(errs)))
	}

	return result, nil
}

// loadTasks reads tasks from a CSV export or a task database. Exactly one
// source must be given.
func loadTasks(ctx context.Context, tasksCSV, dbPath string) ([]batch.Task, error) {
	switch {
	case tasksCSV != "" && dbPath != "":
		return nil, NewExitError(ExitCommandError, "--tasks and --db are mutually exclusive")
	case tasksCSV != "":
		f, err := os.Open(tasksCSV)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open tasks file", err)
		}
		defer f.Close()

		parsed, err := store.ParseTasksCSV(f)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read tasks file", err)
		}
		tasks := make([]batch.Task, 0, len(parsed))
		for _, task := range parsed {
			tasks = append(tasks, batch.Task{ID: task.ID, Row: task.Row})
		}
		return tasks, nil
	case dbPath != "":
		s, err := openStore(dbPath)
		if err != nil {
			return nil, err
		}
		defer s.Close()

		stored, err := s.ReadTasks(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read tasks from database", err)
		}
		tasks := make([]batch.Task, 0, len(stored))
		for _, task := range stored {
			tasks = append(tasks, batch.Task{ID: task.ID, Row: task.Row})
		}
		return tasks, nil
	default:
		return nil, NewExitError(ExitCommandError, "one of --tasks or --db is required")
	}
}

// loadCode reads porting-source revisions from a CSV export or the task
// database, grouped by service.
func loadCode(ctx context.Context, codeCSV, dbPath string) (map[string][]assemble.CodeCandidate, error) {
	switch {
	case codeCSV != "":
		f, err := os.Open(codeCSV)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open code file", err)
		}
		defer f.Close()

		candidates, err := store.ParseCodeCSV(f)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read code file", err)
		}
		return store.GroupCandidates(candidates), nil
	case dbPath != "":
		s, err := openStore(dbPath)
		if err != nil {
			return nil, err
		}
		defer s.Close()

		candidates, err := s.ReadCandidates(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read code from database", err)
		}
		return candidates, nil
	default:
		return nil, NewExitError(ExitCommandError, "one of --code or --db is required")
	}
}

// openStore opens an existing task database; a missing file is a command
// error rather than an implicit create.
func openStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return s, nil
}
