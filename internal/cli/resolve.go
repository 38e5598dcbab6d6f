package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/resolve"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <specs-dir> <service>...",
		Short: "Print the dependency closure for requested services",
		Long: `Resolve the requested services against the spec registry and print the
closure: services in first-seen order, owning modules, and the union of
required input fields. Tokens are normalized the same way task rows are,
so sheet spellings like "WhatsApp Messages" work here too.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runResolve(opts *RootOptions, specsDir string, tokens []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := loadRegistry(formatter, specsDir, registry.LoadModeFailFast)
	if err != nil {
		return err
	}

	requested := registry.SplitServices(strings.Join(tokens, "|"))
	resolved := resolve.Resolve(loaded.Registry, requested, resolve.TaskRow{})

	if formatter.Format == "json" {
		// No task row here, so row-validation issues are meaningless.
		closure := struct {
			Services       []string `json:"services"`
			Modules        []string `json:"modules"`
			RequiredInputs []string `json:"required_inputs"`
		}{resolved.Services, resolved.Modules, resolved.RequiredInputs}
		if err := formatter.Success(closure); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "services: %s\n", strings.Join(resolved.Services, ", "))
		fmt.Fprintf(formatter.Writer, "modules: %s\n", strings.Join(resolved.Modules, ", "))
		fmt.Fprintf(formatter.Writer, "required inputs: %s\n", strings.Join(resolved.RequiredInputs, ", "))
	}

	if len(resolved.Issues.UnknownServices) > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("unknown services: %s", strings.Join(resolved.Issues.UnknownServices, ", ")))
	}
	return nil
}
