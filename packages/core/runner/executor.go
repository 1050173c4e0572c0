package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/builtin"
	"github.com/abdul-hamid-achik/rorschach/packages/capture"
	"github.com/abdul-hamid-achik/rorschach/packages/core/env"
	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
	"github.com/abdul-hamid-achik/rorschach/packages/http"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Doer sends one request and returns the fully read response.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Executor runs a single request against the current bind snapshot.
type Executor struct {
	client     Doer
	syntax     parser.Syntax
	transforms *builtin.Registry
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Execution is what running one request produced. Err is set when the
// request could not be rendered or no response arrived; View is nil then.
type Execution struct {
	Spec     *parser.RequestSpec
	Request  *http.Request
	Response *http.Response
	View     *http.View
	Binds    map[string]any
	Misses   []capture.Miss
	Unbound  []string
	Duration time.Duration
	Err      error
}

func NewExecutor(client Doer, syntax parser.Syntax, transforms *builtin.Registry, limiter *rate.Limiter, logger *zap.Logger) *Executor {
	if syntax == nil {
		syntax = parser.YAML{}
	}
	if transforms == nil {
		transforms = builtin.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		client:     client,
		syntax:     syntax,
		transforms: transforms,
		limiter:    limiter,
		logger:     logger,
	}
}

// Execute re-renders spec's own fragment with binds, sends it and extracts
// its bind rules from the response. Extraction misses are recorded and
// never fail the execution.
func (e *Executor) Execute(ctx context.Context, file *parser.TestFile, spec *parser.RequestSpec, binds env.BindSet) *Execution {
	exec := &Execution{Spec: spec}

	compiled, err := e.render(spec, binds)
	if err != nil {
		exec.Err = err
		return exec
	}
	exec.Spec = compiled.spec
	exec.Unbound = compiled.unbound
	for _, name := range compiled.unbound {
		e.logger.Warn("unbound variable", zap.String("name", name), zap.String("request", exec.Spec.Name()))
	}

	req := http.BuildRequest(file, exec.Spec)
	exec.Request = req

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			exec.Err = &TransportError{Method: req.Method, URL: req.URL, Err: err}
			return exec
		}
	}

	e.logger.Debug("sending request", zap.String("method", req.Method), zap.String("url", req.BuildURL()))
	start := time.Now()
	resp, err := e.client.Do(ctx, req)
	exec.Duration = time.Since(start)
	if err != nil {
		e.logger.Warn("request failed", zap.String("method", req.Method), zap.String("url", req.URL), zap.Error(err))
		exec.Err = &TransportError{Method: req.Method, URL: req.URL, Err: err}
		return exec
	}
	if resp.Duration > 0 {
		exec.Duration = resp.Duration
	}
	exec.Response = resp
	exec.View = http.NewView(resp)
	e.logger.Debug("received response",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", exec.Duration),
	)

	exec.Binds, exec.Misses = capture.ExtractAll(exec.View, exec.Spec.Binds, e.transforms)
	for _, miss := range exec.Misses {
		e.logger.Warn("bind not extracted", zap.String("name", miss.Name), zap.String("path", miss.Path), zap.Error(miss.Err))
	}

	return exec
}

type rendered struct {
	spec    *parser.RequestSpec
	unbound []string
}

func (e *Executor) render(spec *parser.RequestSpec, binds env.BindSet) (*rendered, error) {
	fragment, err := e.syntax.Dump(spec)
	if err != nil {
		return nil, err
	}
	compiled := e.syntax.Compile(fragment, binds)
	parsed, err := e.syntax.ParseRequest(compiled)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", spec.Name(), err)
	}
	return &rendered{spec: parsed, unbound: e.syntax.SearchVars(compiled)}, nil
}
