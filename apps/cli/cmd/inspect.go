package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/core/config"
	"github.com/abdul-hamid-achik/rorschach/packages/core/env"
	"github.com/abdul-hamid-achik/rorschach/packages/core/runner"
	"github.com/abdul-hamid-achik/rorschach/packages/output"
	"github.com/abdul-hamid-achik/rorschach/packages/stats"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect [file|directory...]",
	Aliases: []string{"run"},
	Short:   "Run API test suites",
	Long: `Run the YAML test suites given as arguments. Directories yield every
.yml and .yaml file below them. Without arguments, test*.yml files under the
working directory are run.

Examples:
  rorschach inspect
  rorschach inspect test_users.yml --bind '{"token": "abc"}'
  rorschach inspect --dir ./api -v
  rorschach run ./tests --format junit --output-file report.xml`,
	RunE: inspectCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond

	defaultEnvFile = ".env"
)

var (
	bindFlags      []string
	envFileFlag    string
	dirFlag        string
	verboseFlag    int // 0=simple, 1=-v, 2=-vv debug dump, 3=-vvv debug logging
	formatFlag     string
	outputFileFlag string
	timeoutFlag    time.Duration
	rateFlag       float64
	followFlag     bool
	insecureFlag   bool
	proxyFlag      string
	noColorFlag    bool
	saikouFlag     bool
	watchFlag      bool
	statsFlag      bool
)

func init() {
	inspectCmd.Flags().StringArrayVarP(&bindFlags, "bind", "b", nil, "JSON object of bind values, repeatable; later objects win")
	inspectCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("RORSCHACH_ENV_FILE", ""), "Path to .env file (default .env when present) (env: RORSCHACH_ENV_FILE)")
	inspectCmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Run every .yml/.yaml file in this directory")

	inspectCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v assertions, -vv debug dump, -vvv debug logs)")
	inspectCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: console, json, junit, tap")
	inspectCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")
	inspectCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	inspectCmd.Flags().BoolVar(&saikouFlag, "saikou", false, "Finish with a cheer instead of \"finished\"")
	inspectCmd.Flags().BoolVar(&statsFlag, "stats", false, "Print request latency percentiles to stderr")

	inspectCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Request timeout (e.g., 30s, 1m)")
	inspectCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Maximum requests per second (0 for unpaced)")
	inspectCmd.Flags().BoolVar(&followFlag, "follow-redirects", false, "Follow redirects instead of reporting them")
	inspectCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	inspectCmd.Flags().StringVar(&proxyFlag, "proxy", "", "Proxy URL for HTTP requests")
	inspectCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run")
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.SuiteResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func validFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", "console", "json", "junit", "tap":
		return true
	}
	return false
}

func newFormatter(format string, w io.Writer, verbosity int, noColor bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w)), nil
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w)), nil
	case "", "console":
		v := output.Verbosity(verbosity)
		if v > output.VerbosityDebug {
			v = output.VerbosityDebug
		}
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbosity(v),
			output.WithNoColor(noColor),
			output.WithSaikou(saikouFlag),
		), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// consoleVerbosity is the -v count, or 1 when verbose output was only
// enabled through the config file or RORSCHACH_VERBOSE.
func consoleVerbosity(settings *config.Config) int {
	if verboseFlag == 0 && settings.GetVerbose() {
		return int(output.VerbosityVerbose)
	}
	return verboseFlag
}

// loadSettings resolves the config file, RORSCHACH_* variables and flags,
// in increasing precedence.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}
	envConfig, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	cfg := fileConfig.Merge(envConfig)

	flags := &config.Config{}
	if cmd.Flags().Changed("timeout") {
		flags.Timeout = int(timeoutFlag.Milliseconds())
	}
	if cmd.Flags().Changed("rate") {
		flags.Rate = rateFlag
	}
	if cmd.Flags().Changed("follow-redirects") {
		flags.FollowRedirects = config.BoolPtr(followFlag)
	}
	if insecureFlag {
		flags.ValidateSSL = config.BoolPtr(false)
	}
	if noColorFlag {
		flags.NoColor = config.BoolPtr(true)
	}
	if verboseFlag > 0 {
		flags.Verbose = config.BoolPtr(true)
	}
	flags.Proxy = proxyFlag
	flags.Format = formatFlag

	return cfg.Merge(flags), nil
}

// envSource prefers real environment variables over the env file, the way
// dotenv loaders leave existing variables alone.
func envSource(path string) (env.Source, error) {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	values, err := env.LoadDotEnv(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return env.OSSource{}, nil
		}
		return nil, err
	}
	return env.Chain{env.OSSource{}, env.MapSource(values)}, nil
}

func targetFiles(args []string) ([]string, error) {
	switch {
	case dirFlag != "":
		return collectFiles(append([]string{dirFlag}, args...))
	case len(args) > 0:
		return collectFiles(args)
	default:
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return discoverFiles(wd)
	}
}

type runTotals struct {
	failed     bool
	aborted    bool
	parseError bool
}

func (t runTotals) exitCode() int {
	switch {
	case t.parseError:
		return ExitParseError
	case t.aborted:
		return ExitAborted
	case t.failed:
		return ExitTestFailure
	default:
		return ExitSuccess
	}
}

func inspectCommand(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return exitErr(ExitConfigError, err)
	}

	source, err := envSource(envFileFlag)
	if err != nil {
		return exitErr(ExitConfigError, fmt.Errorf("loading env file: %w", err))
	}

	input, err := env.ParseInput(bindFlags)
	if err != nil {
		return exitErr(ExitUsageError, err)
	}

	files, err := targetFiles(args)
	if err != nil {
		return exitErr(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitErr(ExitUsageError, fmt.Errorf("no test files found"))
	}

	var outWriter io.Writer = cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return exitErr(ExitConfigError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		outWriter = f
	}

	if !validFormat(settings.Format) {
		return exitErr(ExitUsageError, fmt.Errorf("unknown format %q", settings.Format))
	}

	logger := newLogger(cmd.ErrOrStderr(), verboseFlag, settings.GetNoColor())
	defer func() { _ = logger.Sync() }()

	metrics := stats.NewMetrics()
	r := runner.NewRunner(&runner.Config{
		Timeout:        settings.TimeoutDuration(),
		FollowRedirect: settings.GetFollowRedirects(),
		MaxRedirects:   settings.MaxRedirects,
		Insecure:       !settings.GetValidateSSL(),
		Proxy:          settings.Proxy,
		Headers:        settings.Headers,
		Rate:           settings.Rate,
		Binds:          input,
	},
		runner.WithLogger(logger),
		runner.WithSource(source),
		runner.WithMetrics(metrics),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runAll := func() (runTotals, error) {
		var totals runTotals
		formatter, _ := newFormatter(settings.Format, outWriter, consoleVerbosity(settings), settings.GetNoColor())
		metrics.Start()
		start := time.Now()

		for _, file := range files {
			result, err := r.RunFile(ctx, file)
			if err != nil {
				formatter.FormatError(fmt.Errorf("%s: %w", file, err))
				totals.parseError = true
				continue
			}
			formatter.FormatResult(result)
			if result.Abort != nil {
				totals.aborted = true
			}
			if !result.Passed {
				totals.failed = true
			}
		}

		metrics.Stop()
		if flushable, ok := formatter.(Flushable); ok {
			if err := flushable.Flush(time.Since(start)); err != nil {
				return totals, fmt.Errorf("error writing output: %w", err)
			}
		}
		if statsFlag {
			writeStats(cmd.ErrOrStderr(), metrics.Summary())
		}
		return totals, nil
	}

	totals, err := runAll()
	if err != nil {
		return exitErr(ExitConfigError, err)
	}

	if !watchFlag {
		if code := totals.exitCode(); code != ExitSuccess {
			return silentExit(code)
		}
		return nil
	}

	return watch(ctx, cmd, files, logger, func() {
		if _, err := runAll(); err != nil {
			logger.Error("re-run failed", zap.Error(err))
		}
	})
}

func writeStats(w io.Writer, s *stats.Summary) {
	fmt.Fprintf(w, "requests: %d  errors: %d  p50: %s  p95: %s  p99: %s  max: %s\n",
		s.TotalRequests, s.ErrorCount, s.P50, s.P95, s.P99, s.Max)
}

// watch re-runs on writes to any suite file until ctx is done.
func watch(ctx context.Context, cmd *cobra.Command, files []string, logger *zap.Logger, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return exitErr(ExitConfigError, fmt.Errorf("failed to create file watcher: %w", err))
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			}
			watchedDirs[dir] = true
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	changes := make(chan string)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) || !isSuiteFile(event.Name) {
					continue
				}
				select {
				case changes <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()

	runOnChange(ctx, changes, WatchDebounceDelay, func(name string) {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n\n", name)
		rerun()
		fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
	})
	return nil
}

// runOnChange calls run with the last name received once changes has been
// quiet for delay. Calls happen one at a time on the caller's goroutine;
// names arriving during a call start a new debounce afterwards.
func runOnChange(ctx context.Context, changes <-chan string, delay time.Duration, run func(name string)) {
	var (
		pending string
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-changes:
			if !ok {
				return
			}
			pending = name
			fire = time.After(delay)
		case <-fire:
			fire = nil
			run(pending)
		}
	}
}
