package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/portforge/internal/store"
)

// ImportResult holds the import command's output.
type ImportResult struct {
	Tasks int `json:"tasks"`
	Code  int `json:"code"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		tasksCSV string
		codeCSV  string
	)

	cmd := &cobra.Command{
		Use:   "import <db-path>",
		Short: "Import CSV exports into a task database",
		Long: `Import task-sheet and code-sheet CSV exports into a SQLite task
database, creating it if it does not exist. Tasks are stored field by
field; code revisions append, preserving insertion order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], tasksCSV, codeCSV, cmd)
		},
	}

	cmd.Flags().StringVar(&tasksCSV, "tasks", "", "task sheet CSV export")
	cmd.Flags().StringVar(&codeCSV, "code", "", "code sheet CSV export")

	return cmd
}

func runImport(opts *RootOptions, dbPath, tasksCSV, codeCSV string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if tasksCSV == "" && codeCSV == "" {
		return NewExitError(ExitCommandError, "nothing to import: pass --tasks and/or --code")
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer s.Close()

	var result ImportResult

	if tasksCSV != "" {
		f, err := os.Open(tasksCSV)
		if err != nil {
			return WrapExitError(ExitCommandError, "open tasks file", err)
		}
		n, err := s.ImportTasksCSV(cmd.Context(), f)
		f.Close()
		if err != nil {
			return WrapExitError(ExitCommandError, "import tasks", err)
		}
		result.Tasks = n
		formatter.VerboseLog("Imported %d task(s) from %s", n, tasksCSV)
	}

	if codeCSV != "" {
		f, err := os.Open(codeCSV)
		if err != nil {
			return WrapExitError(ExitCommandError, "open code file", err)
		}
		n, err := s.ImportCodeCSV(cmd.Context(), f)
		f.Close()
		if err != nil {
			return WrapExitError(ExitCommandError, "import code", err)
		}
		result.Code = n
		formatter.VerboseLog("Imported %d code revision(s) from %s", n, codeCSV)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Imported %d task(s), %d code revision(s) into %s\n",
		result.Tasks, result.Code, dbPath)
	return nil
}
