package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/abdul-hamid-achik/rorschach/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Suites   []JSONSuite `json:"suites"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Aborted int `json:"aborted"`
}

// JSONSuite is one file's run
type JSONSuite struct {
	RunID    string     `json:"runId"`
	File     string     `json:"file"`
	Passed   bool       `json:"passed"`
	Aborted  string     `json:"aborted,omitempty"`
	Unbound  []string   `json:"unbound,omitempty"`
	Duration float64    `json:"duration"`
	Tests    []JSONTest `json:"tests"`
}

// JSONTest represents a single request result
type JSONTest struct {
	Name       string          `json:"name"`
	Passed     bool            `json:"passed"`
	Duration   float64         `json:"duration"`
	Error      string          `json:"error,omitempty"`
	Request    *JSONRequest    `json:"request,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
	Binds      map[string]any  `json:"binds,omitempty"`
	Misses     []string        `json:"misses,omitempty"`
	Unbound    []string        `json:"unbound,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

// JSONAssertion represents an assertion result
type JSONAssertion struct {
	Kind     string   `json:"kind"`
	Subject  string   `json:"subject"`
	Expected any      `json:"expected,omitempty"`
	Actual   any      `json:"actual,omitempty"`
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors,omitempty"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer io.Writer
	suites []JSONSuite
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		suites: make([]JSONSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.SuiteResult) {
	suite := JSONSuite{
		RunID:    result.RunID,
		File:     result.File,
		Passed:   result.Passed,
		Unbound:  result.Unbound,
		Duration: float64(result.Duration.Milliseconds()),
		Tests:    make([]JSONTest, 0, len(result.Outcomes)),
	}
	if result.Abort != nil {
		suite.Aborted = result.Abort.Error()
	}

	for _, o := range result.Outcomes {
		test := JSONTest{
			Name:     o.Name,
			Passed:   o.Passed,
			Duration: float64(o.Duration.Milliseconds()),
			Unbound:  o.Unbound,
		}

		if o.Err != nil {
			test.Error = o.Err.Error()
		}

		if o.Request != nil {
			headers := make(map[string]string, len(o.Request.Headers))
			for _, h := range o.Request.Headers {
				headers[h.Key] = h.Value
			}
			test.Request = &JSONRequest{
				Method:  o.Request.Method,
				URL:     o.Request.BuildURL(),
				Headers: headers,
			}
		}

		if o.Response != nil {
			test.Response = &JSONResponse{
				StatusCode: o.Response.StatusCode,
				Status:     o.Response.Status,
				Headers:    o.Response.Headers,
				Duration:   float64(o.Response.Duration.Milliseconds()),
			}
		}

		for _, a := range o.Results {
			test.Assertions = append(test.Assertions, JSONAssertion{
				Kind:     a.Kind,
				Subject:  a.Subject,
				Expected: a.Expected,
				Actual:   a.Actual,
				Passed:   a.Passed,
				Errors:   a.Errors,
			})
		}

		if len(o.Binds) > 0 {
			test.Binds = make(map[string]any, len(o.Binds))
			for name, v := range o.Binds {
				test.Binds[name] = parser.Render(v)
			}
		}

		for _, m := range o.Misses {
			test.Misses = append(test.Misses, m.Error())
		}

		suite.Tests = append(suite.Tests, test)
	}

	f.suites = append(f.suites, suite)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, s := range f.suites {
		if s.Aborted != "" {
			summary.Aborted++
		}
		for _, t := range s.Tests {
			summary.Total++
			if t.Passed {
				summary.Passed++
			} else {
				summary.Failed++
			}
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Suites:   f.suites,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
