// Package runner executes rorschach suites.
//
// A suite run walks a fixed sequence of states:
//
//	LOAD → PRECOMPILE → SEED_BINDS → COMPILE_PRE → RUN_PRE* → COMPILE_MAIN → RUN_MAIN* → REPORT → DONE
//
// Pre-requests run first. A pre-request answering with status 400 or above,
// or failing to send, moves the run to ABORT and no main request runs.
// Main requests are always all attempted; each one re-renders its own
// fragment with the binds gathered so far, so request N+1 sees what
// request N extracted.
//
// Runs are sequential. A Runner holds no per-run state and may run several
// suites concurrently.
package runner
