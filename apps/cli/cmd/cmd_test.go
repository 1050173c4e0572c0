package cmd

import (
	"bytes"
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/core/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yml"), "")
	writeFile(t, filepath.Join(dir, "nested", "b.yaml"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, ".hidden", "c.yml"), "")
	single := filepath.Join(t.TempDir(), "suite.txt")
	writeFile(t, single, "")

	files, err := collectFiles([]string{dir, single})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "nested", "b.yaml"),
		single,
	}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing.yml")})
	assert.ErrorContains(t, err, "cannot access")
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "test_users.yml"), "")
	writeFile(t, filepath.Join(dir, "api", "test.yml"), "")
	writeFile(t, filepath.Join(dir, "api", "users.yml"), "")
	writeFile(t, filepath.Join(dir, "test_users.yaml"), "")

	files, err := discoverFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "api", "test.yml"),
		filepath.Join(dir, "test_users.yml"),
	}, files)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitUsageError, ExitCode(errors.New("unknown flag")))
	assert.Equal(t, ExitAborted, ExitCode(silentExit(ExitAborted)))
	assert.Equal(t, ExitParseError, ExitCode(exitErr(ExitParseError, errors.New("bad"))))

	assert.Equal(t, ExitParseError, runTotals{parseError: true, failed: true}.exitCode())
	assert.Equal(t, ExitAborted, runTotals{aborted: true, failed: true}.exitCode())
	assert.Equal(t, ExitTestFailure, runTotals{failed: true}.exitCode())
	assert.Equal(t, ExitSuccess, runTotals{}.exitCode())
}

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		bindFlags = nil
		envFileFlag, dirFlag, formatFlag, outputFileFlag, proxyFlag, configFlag = "", "", "", "", "", ""
		verboseFlag = 0
		timeoutFlag, rateFlag = 0, 0
		followFlag, insecureFlag, noColorFlag, saikouFlag, watchFlag, statsFlag = false, false, false, false, false, false
		for _, c := range []*pflag.FlagSet{inspectCmd.Flags(), rootCmd.PersistentFlags()} {
			c.VisitAll(func(f *pflag.Flag) { f.Changed = false })
		}
	})
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	resetFlags(t)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), ExitCode(err)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/fail" {
			w.WriteHeader(500)
		}
		_, _ = w.Write([]byte(`{"id": 1, "name": "John"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInspect_Passes(t *testing.T) {
	server := newServer(t)
	file := filepath.Join(t.TempDir(), "test_ok.yml")
	writeFile(t, file, `request:
  - url: "{{ base }}/users/1"
    expect:
      code: 200
      value:
        name: John
`)

	stdout, _, code := runCLI(t, "inspect", file, "--no-color", "-b", `{"base": "`+server.URL+`"}`)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "GET\t"+server.URL+"/users/1\tPASSED.\nfinished\n", stdout)
}

func TestInspect_ExitCodes(t *testing.T) {
	server := newServer(t)
	dir := t.TempDir()
	bind := `{"base": "` + server.URL + `"}`

	failing := filepath.Join(dir, "failing.yml")
	writeFile(t, failing, `request:
  - url: ((base))/users/1
    expect:
      code: 201
`)
	aborting := filepath.Join(dir, "aborting.yml")
	writeFile(t, aborting, `pre-request:
  - url: ((base))/fail
request:
  - url: ((base))/users/1
`)
	broken := filepath.Join(dir, "broken.yml")
	writeFile(t, broken, "request: [")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"failure", []string{"run", failing, "-b", bind, "--no-color"}, ExitTestFailure},
		{"abort", []string{"inspect", aborting, "-b", bind, "--no-color"}, ExitAborted},
		{"parse error", []string{"inspect", broken, "--no-color"}, ExitParseError},
		{"bad bind", []string{"inspect", failing, "-b", "[1]"}, ExitUsageError},
		{"bad format", []string{"inspect", failing, "--format", "html"}, ExitUsageError},
		{"missing env file", []string{"inspect", failing, "--env-file", filepath.Join(dir, "nope.env")}, ExitConfigError},
		{"unknown flag", []string{"inspect", "--nope"}, ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestInspect_EnvFileAndJSON(t *testing.T) {
	server := newServer(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "ci.env")
	writeFile(t, envFile, "RORSCHACH_TEST_BASE="+server.URL+"\n")
	file := filepath.Join(dir, "suite.yml")
	writeFile(t, file, `request:
  - url: ((RORSCHACH_TEST_BASE))/users/1
    expect:
      code: 200
`)
	out := filepath.Join(dir, "report.json")

	_, _, code := runCLI(t, "inspect", file, "--env-file", envFile, "--format", "json", "--output-file", out)
	require.Equal(t, ExitSuccess, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"passed": 1`)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yml")
	writeFile(t, good, "request:\n  - url: /a\n")
	bad := filepath.Join(dir, "bad.yml")
	writeFile(t, bad, "request:\n  - method: GET\n  - url: /b\n    nope: 1\n")

	stdout, stderr, code := runCLI(t, "validate", dir)
	assert.Equal(t, ExitParseError, code)
	assert.Contains(t, stdout, "Valid: "+good)
	assert.Contains(t, stderr, "request is missing url")
	assert.Contains(t, stderr, `unknown request field "nope"`)
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCLI(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "rorschach version dev")
}

func TestInspect_VerboseFromEnvironment(t *testing.T) {
	server := newServer(t)
	file := filepath.Join(t.TempDir(), "test_ok.yml")
	writeFile(t, file, `request:
  - url: ((base))/users/1
    expect:
      code: 200
`)
	t.Setenv("RORSCHACH_VERBOSE", "true")

	stdout, _, code := runCLI(t, "inspect", file, "--no-color", "-b", `{"base": "`+server.URL+`"}`)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "\t[code]\tPASSED.\t200\n")
}

func TestConsoleVerbosity(t *testing.T) {
	resetFlags(t)

	assert.Equal(t, 0, consoleVerbosity(&config.Config{}))
	assert.Equal(t, 1, consoleVerbosity(&config.Config{Verbose: config.BoolPtr(true)}))

	verboseFlag = 2
	assert.Equal(t, 2, consoleVerbosity(&config.Config{Verbose: config.BoolPtr(true)}))
}

func TestRunOnChange(t *testing.T) {
	t.Run("debounces bursts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan string, 3)
		changes <- "a.yml"
		changes <- "b.yml"
		changes <- "c.yml"

		var mu sync.Mutex
		var names []string
		done := make(chan struct{})
		go func() {
			defer close(done)
			runOnChange(ctx, changes, 20*time.Millisecond, func(name string) {
				mu.Lock()
				names = append(names, name)
				mu.Unlock()
			})
		}()

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(names) == 1
		}, time.Second, 5*time.Millisecond)
		cancel()
		<-done

		assert.Equal(t, []string{"c.yml"}, names)
	})

	t.Run("never overlaps runs", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan string, 2)
		var running, maxRunning, runs int32
		started := make(chan struct{}, 2)
		done := make(chan struct{})
		go func() {
			defer close(done)
			runOnChange(ctx, changes, 5*time.Millisecond, func(string) {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				started <- struct{}{}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				atomic.AddInt32(&runs, 1)
			})
		}()

		changes <- "a.yml"
		<-started
		changes <- "a.yml"

		require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		<-done

		assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
	})
}
