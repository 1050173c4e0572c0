package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|directory...]",
	Short: "Validate test suites for syntax errors",
	Long: `Validate test suites for syntax errors without executing them. Every
problem in a file is reported, not only the first.

Examples:
  rorschach validate test_users.yml
  rorschach validate ./tests/`,
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := targetFiles(args)
	if err != nil {
		return exitErr(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitErr(ExitUsageError, fmt.Errorf("no test files found"))
	}

	hasErrors := false
	for _, file := range files {
		_, err := parser.ParseFile(file)
		if err != nil {
			hasErrors = true
			for _, e := range multierr.Errors(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, e)
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return exitErr(ExitParseError, fmt.Errorf("validation failed"))
	}

	return nil
}
