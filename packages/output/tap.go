package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/core/runner"
)

// TAPFormatter formats test results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
	bailOut   []string
}

type tapResult struct {
	number     int
	name       string
	passed     bool
	error      string
	assertions []string
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.SuiteResult) {
	if result.Abort != nil {
		f.bailOut = append(f.bailOut, fmt.Sprintf("%s: %s", result.File, result.Abort.Error()))
		return
	}

	for _, o := range result.Outcomes {
		f.testCount++
		tr := tapResult{
			number: f.testCount,
			name:   o.Method + " " + o.URL,
			passed: o.Passed,
		}

		if o.Err != nil {
			tr.error = o.Err.Error()
		}

		for _, a := range o.Results {
			if !a.Passed {
				tr.assertions = append(tr.assertions, fmt.Sprintf("[%s] %s: %s", a.Kind, a.Subject, a.Message()))
			}
		}

		f.results = append(f.results, tr)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		if r.passed {
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
			continue
		}

		fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
		if r.error == "" && len(r.assertions) == 0 {
			continue
		}
		fmt.Fprintf(f.writer, "  ---\n")
		if r.error != "" {
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.error))
			fmt.Fprintf(f.writer, "  severity: error\n")
		}
		if len(r.assertions) > 0 {
			fmt.Fprintf(f.writer, "  failures:\n")
			for _, a := range r.assertions {
				fmt.Fprintf(f.writer, "    - %s\n", escapeYAML(a))
			}
		}
		fmt.Fprintf(f.writer, "  ...\n")
	}

	for _, reason := range f.bailOut {
		fmt.Fprintf(f.writer, "Bail out! %s\n", reason)
	}

	fmt.Fprintln(f.writer)

	return nil
}

func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return "\"" + s + "\""
	}
	return s
}
