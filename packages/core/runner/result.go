package runner

import (
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/assertions"
	"github.com/abdul-hamid-achik/rorschach/packages/capture"
	"github.com/abdul-hamid-achik/rorschach/packages/core/env"
	"github.com/abdul-hamid-achik/rorschach/packages/http"
)

// State is a step of a suite run.
type State int

const (
	StateLoad State = iota
	StatePrecompile
	StateSeedBinds
	StateCompilePre
	StateRunPre
	StateCompileMain
	StateRunMain
	StateReport
	StateDone
	StateAbort
)

func (s State) String() string {
	switch s {
	case StateLoad:
		return "LOAD"
	case StatePrecompile:
		return "PRECOMPILE"
	case StateSeedBinds:
		return "SEED_BINDS"
	case StateCompilePre:
		return "COMPILE_PRE"
	case StateRunPre:
		return "RUN_PRE"
	case StateCompileMain:
		return "COMPILE_MAIN"
	case StateRunMain:
		return "RUN_MAIN"
	case StateReport:
		return "REPORT"
	case StateDone:
		return "DONE"
	case StateAbort:
		return "ABORT"
	default:
		return "UNKNOWN"
	}
}

// SuiteResult is the report of one suite run.
type SuiteResult struct {
	RunID       string
	File        string
	PreRequests []*Outcome
	Outcomes    []*Outcome
	Passed      bool
	// Abort is set when the pre-request phase stopped the run. Outcomes is
	// empty in that case.
	Abort *AbortError
	// Unbound lists names still unresolved after the main compile pass.
	Unbound  []string
	Binds    env.BindSet
	Trace    []State
	Duration time.Duration
}

func (s *SuiteResult) PassedCount() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Passed {
			n++
		}
	}
	return n
}

func (s *SuiteResult) FailedCount() int {
	return len(s.Outcomes) - s.PassedCount()
}

// Outcome is the record of one executed request.
type Outcome struct {
	Name        string
	Description string
	Method      string
	URL         string
	Passed      bool
	Duration    time.Duration
	Request     *http.Request
	Response    *http.Response
	Results     []*assertions.Result
	Binds       map[string]any
	Misses      []capture.Miss
	Unbound     []string
	// Err is a *TransportError, an *assertions.ConfigurationError or a
	// failure to render the request.
	Err error
}

// Status is the response status, or 0 when no response arrived.
func (o *Outcome) Status() int {
	if o.Response == nil {
		return 0
	}
	return o.Response.StatusCode
}
