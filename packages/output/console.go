package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/assertions"
	"github.com/abdul-hamid-achik/rorschach/packages/core/runner"
	"github.com/fatih/color"
)

// Verbosity selects how much of each request the console prints.
type Verbosity int

const (
	// VerbositySimple prints one line per request, plus assertion lines
	// for failed requests.
	VerbositySimple Verbosity = iota
	// VerbosityVerbose prints every assertion line.
	VerbosityVerbose
	// VerbosityDebug adds unbound variables, the description, the status
	// and the raw response body.
	VerbosityDebug
)

const (
	passedLabel = "PASSED."
	failedLabel = "FAILED."
)

type ConsoleFormatter struct {
	writer    io.Writer
	verbosity Verbosity
	noColor   bool
	saikou    bool
	failed    bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbosity(v Verbosity) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbosity = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithSaikou swaps the closing line for a cheer or a consolation.
func WithSaikou(s bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.saikou = s
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.SuiteResult) {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	if !result.Passed {
		f.failed = true
	}

	if result.Abort != nil {
		fmt.Fprintf(f.writer, "%s\t%s\t%s\n", yellow(result.Abort.Method+"\t"+result.Abort.URL), red(failedLabel), red(result.Abort.Error()))
		return
	}

	for _, o := range result.Outcomes {
		f.formatOutcome(o)
	}
}

func (f *ConsoleFormatter) formatOutcome(o *runner.Outcome) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	label := green(passedLabel)
	if !o.Passed {
		label = red(failedLabel)
	}
	fmt.Fprintf(f.writer, "%s\t%s\n", yellow(o.Method+"\t"+o.URL), label)

	if f.verbosity >= VerbosityDebug {
		for _, name := range o.Unbound {
			fmt.Fprintln(f.writer, red("unbound variable: "+name))
		}
		if o.Description != "" {
			fmt.Fprintln(f.writer, yellow(o.Description))
		}
		if o.Response != nil {
			fmt.Fprintln(f.writer, o.Response.StatusCode)
			fmt.Fprintln(f.writer, o.Response.BodyString())
		}
	}

	if o.Err != nil {
		fmt.Fprintf(f.writer, "\t%s\n", red(o.Err.Error()))
	}

	if !o.Passed || f.verbosity >= VerbosityVerbose {
		for _, r := range o.Results {
			fmt.Fprintln(f.writer, assertionLine(r))
			if !r.Passed && f.verbosity >= VerbosityVerbose {
				fmt.Fprintf(f.writer, "\t\t%s\n", r.Message())
			}
		}
	}
}

func assertionLine(r *assertions.Result) string {
	c := color.New(color.FgGreen)
	info := passedLabel
	if !r.Passed {
		c = color.New(color.FgRed)
		info = failedLabel
	}
	return "\t" + c.Sprintf("[%s]\t%s\t%s", r.Kind, info, r.Subject)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("rorschach"), version)
}

// Flush writes the closing line once every file has been reported.
func (f *ConsoleFormatter) Flush(totalDuration time.Duration) error {
	if !f.saikou {
		_, err := fmt.Fprintln(f.writer, "finished")
		return err
	}
	if f.failed {
		_, err := fmt.Fprint(f.writer, "Don't care!! Try again!!😊 \n")
		return err
	}
	_, err := fmt.Fprint(f.writer, "Congrats!!🍻 \n")
	return err
}
