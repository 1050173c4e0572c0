package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "rorschach",
	Short: "Declarative API tests in YAML.",
	Long: `rorschach runs HTTP API test suites written in YAML. Each suite lists
pre-requests that prepare state and requests whose responses are checked
against expect blocks. Values captured from one response can be bound into
the requests that follow.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	err := rootCmd.Execute()
	if err != nil {
		var exit *ExitError
		if !errors.As(err, &exit) || !exit.Silent {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("RORSCHACH_CONFIG", ""), "Path to config file (env: RORSCHACH_CONFIG)")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

var configFlag string

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
