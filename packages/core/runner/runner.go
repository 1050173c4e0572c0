package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/assertions"
	"github.com/abdul-hamid-achik/rorschach/packages/builtin"
	"github.com/abdul-hamid-achik/rorschach/packages/core/env"
	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/abdul-hamid-achik/rorschach/packages/http"
	"github.com/abdul-hamid-achik/rorschach/packages/stats"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AbortStatus is the lowest pre-request status that aborts a run.
const AbortStatus = 400

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	Insecure       bool
	Proxy          string
	Headers        map[string]string
	// Rate caps requests per second. Zero means unpaced.
	Rate float64
	// Binds is the explicit input merged over environment values.
	Binds map[string]any
}

type Runner struct {
	config     *Config
	client     Doer
	syntax     parser.Syntax
	source     env.Source
	transforms *builtin.Registry
	metrics    *stats.Metrics
	logger     *zap.Logger
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDoer replaces the HTTP client built from Config.
func WithDoer(d Doer) Option {
	return func(r *Runner) {
		r.client = d
	}
}

func WithSource(s env.Source) Option {
	return func(r *Runner) {
		r.source = s
	}
}

func WithSyntax(s parser.Syntax) Option {
	return func(r *Runner) {
		r.syntax = s
	}
}

func WithTransforms(t *builtin.Registry) Option {
	return func(r *Runner) {
		r.transforms = t
	}
}

// WithMetrics records every request's latency into m.
func WithMetrics(m *stats.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Runner{
		config:     cfg,
		syntax:     parser.YAML{},
		source:     env.OSSource{},
		transforms: builtin.NewRegistry(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.FollowRedirect),
			http.WithValidateSSL(!cfg.Insecure),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
		}
		if cfg.MaxRedirects > 0 {
			clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
		}
		if len(cfg.Headers) > 0 {
			clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.Headers))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		r.client = http.NewClient(clientOpts...)
	}

	return r
}

// RunFile reads path and runs it as one suite.
func (r *Runner) RunFile(ctx context.Context, path string) (*SuiteResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return r.Run(ctx, path, string(data))
}

type suite struct {
	*Runner
	result   *SuiteResult
	executor *Executor
	logger   *zap.Logger
}

func (s *suite) enter(state State) {
	s.result.Trace = append(s.result.Trace, state)
	s.logger.Debug("state", zap.Stringer("state", state))
}

// Run executes the suite in text. The returned error covers setup failures
// only; request failures and aborts are reported on the SuiteResult.
func (r *Runner) Run(ctx context.Context, name, text string) (*SuiteResult, error) {
	start := time.Now()
	result := &SuiteResult{RunID: uuid.NewString(), File: name}
	s := &suite{
		Runner: r,
		result: result,
		logger: r.logger.With(zap.String("run_id", result.RunID), zap.String("file", name)),
	}
	s.executor = NewExecutor(r.client, r.syntax, r.transforms, r.limiter(), s.logger)
	defer func() { result.Duration = time.Since(start) }()

	s.enter(StateLoad)

	s.enter(StatePrecompile)
	source := r.syntax.Precompile(text)

	s.enter(StateSeedBinds)
	binds := env.NewRegistry(r.source).Seed(r.syntax.SearchVars(source), r.config.Binds)

	s.enter(StateCompilePre)
	file, err := r.syntax.Parse(r.syntax.Compile(source, binds), name)
	if err != nil {
		return nil, err
	}

	for i := range file.PreRequests {
		s.enter(StateRunPre)
		exec := s.execute(ctx, source, binds, i, preRequests)
		outcome := s.outcome(exec)
		outcome.Passed = exec.Err == nil && exec.Response.StatusCode < AbortStatus
		result.PreRequests = append(result.PreRequests, outcome)
		binds = binds.Merge(exec.Binds)

		if !outcome.Passed {
			result.Abort = abortError(exec)
			result.Binds = binds
			s.logger.Warn("run aborted", zap.Error(result.Abort))
			s.enter(StateAbort)
			return result, nil
		}
	}

	s.enter(StateCompileMain)
	compiled := r.syntax.Compile(source, binds)
	file, err = r.syntax.Parse(compiled, name)
	if err != nil {
		return nil, err
	}
	result.Unbound = r.syntax.SearchVars(compiled)
	if len(result.Unbound) > 0 {
		s.logger.Warn("unbound variables", zap.Strings("names", result.Unbound))
	}

	for i := range file.Requests {
		s.enter(StateRunMain)
		exec := s.execute(ctx, source, binds, i, mainRequests)
		outcome := s.outcome(exec)
		s.evaluate(exec, outcome)
		result.Outcomes = append(result.Outcomes, outcome)
		binds = binds.Merge(exec.Binds)
	}

	s.enter(StateReport)
	result.Binds = binds
	result.Passed = true
	for _, o := range result.Outcomes {
		if !o.Passed {
			result.Passed = false
			break
		}
	}
	s.logger.Debug("run finished",
		zap.Bool("passed", result.Passed),
		zap.Int("passed_count", result.PassedCount()),
		zap.Int("failed_count", result.FailedCount()),
	)

	s.enter(StateDone)
	return result, nil
}

func preRequests(f *parser.TestFile) []*parser.RequestSpec { return f.PreRequests }
func mainRequests(f *parser.TestFile) []*parser.RequestSpec { return f.Requests }

// execute compiles source against the current snapshot and runs the i-th
// request of section, so binds merged by earlier requests reach its template.
func (s *suite) execute(ctx context.Context, source string, binds env.BindSet, i int, section func(*parser.TestFile) []*parser.RequestSpec) *Execution {
	file, err := s.syntax.Parse(s.syntax.Compile(source, binds), s.result.File)
	if err == nil && i >= len(section(file)) {
		err = fmt.Errorf("request %d no longer present after compile", i+1)
	}
	if err != nil {
		spec := &parser.RequestSpec{Method: "GET"}
		s.logger.Warn("rendering request failed", zap.Int("index", i), zap.Error(err))
		return &Execution{Spec: spec, Err: fmt.Errorf("rendering request %d: %w", i+1, err)}
	}
	return s.executor.Execute(ctx, file, section(file)[i], binds)
}

func (r *Runner) limiter() *rate.Limiter {
	if r.config.Rate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(r.config.Rate), 1)
}

func (s *suite) outcome(exec *Execution) *Outcome {
	o := &Outcome{
		Name:        exec.Spec.Name(),
		Description: exec.Spec.Description,
		Method:      exec.Spec.Method,
		URL:         exec.Spec.URL,
		Duration:    exec.Duration,
		Request:     exec.Request,
		Response:    exec.Response,
		Binds:       exec.Binds,
		Misses:      exec.Misses,
		Unbound:     exec.Unbound,
		Err:         exec.Err,
	}
	if exec.Request != nil {
		o.URL = exec.Request.BuildURL()
	}
	if s.metrics != nil && exec.Request != nil {
		s.metrics.Record(exec.Duration, exec.Err != nil)
	}
	return o
}

// evaluate runs the expect block. Transport and configuration errors fail
// the request; the remaining requests still run.
func (s *suite) evaluate(exec *Execution, o *Outcome) {
	if exec.Err != nil {
		return
	}

	results, err := assertions.NewEvaluator(exec.View).EvaluateAll(exec.Spec.Expect)
	o.Results = results
	if err != nil {
		var cfgErr *assertions.ConfigurationError
		if errors.As(err, &cfgErr) {
			s.logger.Warn("invalid expectation", zap.String("request", o.Name), zap.Error(err))
		}
		o.Err = err
		return
	}
	o.Passed = assertions.AllPassed(results)
}

func abortError(exec *Execution) *AbortError {
	ae := &AbortError{
		Request: exec.Spec.Name(),
		Method:  exec.Spec.Method,
		URL:     exec.Spec.URL,
		Err:     exec.Err,
	}
	if exec.Request != nil {
		ae.URL = exec.Request.BuildURL()
	}
	if exec.Response != nil {
		ae.Status = exec.Response.StatusCode
	}
	if te, ok := exec.Err.(*TransportError); ok {
		ae.Err = te.Err
	}
	return ae
}
