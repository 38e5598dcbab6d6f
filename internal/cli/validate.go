package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/portforge/internal/batch"
	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/resolve"
)

// TaskPreflight is one task's preflight outcome.
type TaskPreflight struct {
	TaskID   string         `json:"task_id"`
	Services []string       `json:"services"`
	Issues   resolve.Issues `json:"issues"`
}

// ValidationResult holds the validate command's output.
type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Services []string        `json:"services"`
	Warnings []string        `json:"warnings,omitempty"`
	Tasks    []TaskPreflight `json:"tasks,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		tasksCSV string
		dbPath   string
	)

	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate specs and preflight task rows",
		Long: `Validate CUE service and porting specs, and optionally preflight a task
source against them.

Spec validation checks structure, emission modes, and default-instance
files. With --tasks or --db, every task row is additionally resolved and
checked for unknown services, missing inputs, and malformed JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], tasksCSV, dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&tasksCSV, "tasks", "", "task sheet CSV export to preflight")
	cmd.Flags().StringVar(&dbPath, "db", "", "task database to preflight")

	return cmd
}

func runValidate(opts *RootOptions, specsDir, tasksCSV, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := loadRegistry(formatter, specsDir, registry.LoadModeCollectAll)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:    true,
		Services: loaded.Registry.ServiceIDs(),
	}
	for _, w := range loaded.Warnings {
		result.Warnings = append(result.Warnings, w.Message)
	}

	if tasksCSV != "" || dbPath != "" {
		tasks, err := loadTasks(cmd.Context(), tasksCSV, dbPath)
		if err != nil {
			return err
		}
		result.Tasks = preflightTasks(loaded.Registry, tasks)
		for _, task := range result.Tasks {
			if !task.Issues.Empty() {
				result.Valid = false
			}
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printValidationText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "preflight found issues")
	}
	return nil
}

// preflightTasks resolves every task and records its issues, in task order.
func preflightTasks(reg *registry.Registry, tasks []batch.Task) []TaskPreflight {
	out := make([]TaskPreflight, 0, len(tasks))
	for _, task := range tasks {
		requested := registry.SplitServices(task.Row.Get("services_needed"))
		if len(requested) == 0 {
			requested = resolve.FromInputs(reg, task.Row)
		}
		resolved := resolve.Resolve(reg, requested, task.Row)
		out = append(out, TaskPreflight{
			TaskID:   task.ID,
			Services: resolved.Services,
			Issues:   resolved.Issues,
		})
	}
	return out
}

func printValidationText(formatter *OutputFormatter, result ValidationResult) {
	fmt.Fprintf(formatter.Writer, "Specs OK: %d service(s)\n", len(result.Services))
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "Warning: %s\n", w)
	}

	for _, task := range result.Tasks {
		if task.Issues.Empty() {
			formatter.VerboseLog("Task %s: ok", task.TaskID)
			continue
		}
		fmt.Fprintf(formatter.Writer, "Task %s:\n", task.TaskID)
		if len(task.Issues.UnknownServices) > 0 {
			fmt.Fprintf(formatter.Writer, "  unknown services: %v\n", task.Issues.UnknownServices)
		}
		if len(task.Issues.MissingInputs) > 0 {
			fmt.Fprintf(formatter.Writer, "  missing inputs: %v\n", task.Issues.MissingInputs)
		}
		if len(task.Issues.JSONErrors) > 0 {
			fields := make([]string, 0, len(task.Issues.JSONErrors))
			for f := range task.Issues.JSONErrors {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(formatter.Writer, "  %s: %s\n", f, task.Issues.JSONErrors[f])
			}
		}
	}
}
