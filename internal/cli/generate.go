package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/portforge/internal/assemble"
	"github.com/roach88/portforge/internal/batch"
	"github.com/roach88/portforge/internal/notebook"
	"github.com/roach88/portforge/internal/registry"
)

// TaskOutcome is one task's generate result for the run summary.
type TaskOutcome struct {
	TaskID   string   `json:"task_id"`
	Services []string `json:"services,omitempty"`
	File     string   `json:"file,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// GenerateResult holds the generate command's output.
type GenerateResult struct {
	Generated int           `json:"generated"`
	Failed    int           `json:"failed"`
	Outputs   []TaskOutcome `json:"outputs"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		tasksCSV   string
		dbPath     string
		codeCSV    string
		setupFiles []string
		outDir     string
		workers    int
		onlyTask   string
	)

	cmd := &cobra.Command{
		Use:   "generate <specs-dir>",
		Short: "Generate porting notebooks for every task",
		Long: `Resolve each task's services, normalize its vendor payloads against the
canonical defaults, and write one porting notebook per task plus a
summary.csv into the output directory.

Tasks and porting code come from CSV exports (--tasks, --code) or from a
task database (--db). Failed tasks are reported in the summary and do not
stop the batch.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, generateOptions{
				specsDir:   args[0],
				tasksCSV:   tasksCSV,
				dbPath:     dbPath,
				codeCSV:    codeCSV,
				setupFiles: setupFiles,
				outDir:     outDir,
				workers:    workers,
				onlyTask:   onlyTask,
			}, cmd)
		},
	}

	cmd.Flags().StringVar(&tasksCSV, "tasks", "", "task sheet CSV export")
	cmd.Flags().StringVar(&dbPath, "db", "", "task database (tasks and code)")
	cmd.Flags().StringVar(&codeCSV, "code", "", "code sheet CSV export")
	cmd.Flags().StringArrayVar(&setupFiles, "setup", nil, "setup source file, repeatable, emitted in order")
	cmd.Flags().StringVarP(&outDir, "out", "o", "notebooks", "output directory")
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel task workers")
	cmd.Flags().StringVar(&onlyTask, "task", "", "generate only this task id")

	return cmd
}

type generateOptions struct {
	specsDir   string
	tasksCSV   string
	dbPath     string
	codeCSV    string
	setupFiles []string
	outDir     string
	workers    int
	onlyTask   string
}

func runGenerate(opts *RootOptions, gen generateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := loadRegistry(formatter, gen.specsDir, registry.LoadModeCollectAll)
	if err != nil {
		return err
	}

	tasks, err := loadTasks(cmd.Context(), gen.tasksCSV, gen.dbPath)
	if err != nil {
		return err
	}
	if gen.onlyTask != "" {
		filtered := tasks[:0]
		for _, task := range tasks {
			if task.ID == gen.onlyTask {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
		if len(tasks) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("task %q not found", gen.onlyTask))
		}
	}

	code, err := loadCode(cmd.Context(), gen.codeCSV, gen.dbPath)
	if err != nil {
		return err
	}

	setup, err := readSetupFiles(gen.setupFiles)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(gen.outDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create output directory", err)
	}

	logger := zap.NewNop()
	if opts.Verbose {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
			defer logger.Sync()
		}
	}

	driver := &batch.Driver{
		Registry: loaded.Registry,
		Setup:    setup,
		Code:     code,
		Workers:  gen.workers,
		Logger:   logger,
	}
	results, err := driver.Run(cmd.Context(), tasks)
	if err != nil {
		return WrapExitError(ExitCommandError, "batch run", err)
	}

	result := GenerateResult{Outputs: []TaskOutcome{}}
	for _, r := range results {
		outcome := TaskOutcome{TaskID: r.TaskID}
		if r.Resolved != nil {
			outcome.Services = r.Resolved.Services
		}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
			result.Failed++
			result.Outputs = append(result.Outputs, outcome)
			continue
		}

		data, err := notebook.Render(r.Document)
		if err != nil {
			outcome.Error = err.Error()
			result.Failed++
			result.Outputs = append(result.Outputs, outcome)
			continue
		}

		name := safeFileName(r.TaskID) + ".ipynb"
		path := filepath.Join(gen.outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			outcome.Error = err.Error()
			result.Failed++
			result.Outputs = append(result.Outputs, outcome)
			continue
		}

		outcome.File = name
		result.Generated++
		result.Outputs = append(result.Outputs, outcome)
		formatter.VerboseLog("Wrote %s", path)
	}

	if err := writeSummary(filepath.Join(gen.outDir, "summary.csv"), result.Outputs); err != nil {
		return WrapExitError(ExitCommandError, "write summary", err)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "Generated %d notebook(s), %d failed, output in %s\n",
			result.Generated, result.Failed, gen.outDir)
		for _, o := range result.Outputs {
			if o.Error != "" {
				fmt.Fprintf(formatter.Writer, "  %s: %s\n", o.TaskID, o.Error)
			}
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d task(s) failed", result.Failed))
	}
	return nil
}

// readSetupFiles loads each setup source file in flag order. The block
// name is the file name without its extension.
func readSetupFiles(paths []string) ([]assemble.SetupBlock, error) {
	var blocks []assemble.SetupBlock
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read setup file", err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		blocks = append(blocks, assemble.SetupBlock{Name: name, Source: string(data)})
	}
	return blocks, nil
}

var unsafeNameRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// safeFileName makes a task id usable as a file name.
func safeFileName(id string) string {
	name := strings.TrimSpace(unsafeNameRe.ReplaceAllString(id, "_"))
	if name == "" {
		name = "task"
	}
	return name
}

// writeSummary records one row per task: id, services, output file, error.
func writeSummary(path string, outcomes []TaskOutcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"task_id", "services", "file", "error"}); err != nil {
		return err
	}
	for _, o := range outcomes {
		record := []string{o.TaskID, strings.Join(o.Services, "|"), o.File, o.Error}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
