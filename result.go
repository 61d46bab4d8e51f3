package shaderscript

import (
	"errors"
	"fmt"
)

// Status is the terminal classification of one run.
type Status int

const (
	// StatusSuccess means every requirement held, the build succeeded,
	// and every probe matched.
	StatusSuccess Status = iota

	// StatusFailure means the run hit an implementation defect: a probe
	// mismatch, a build error, or a malformed script.
	StatusFailure

	// StatusSkip means an environment precondition was not met. Skips are
	// reported distinctly so suites can exclude unsupported tests from
	// pass/fail statistics.
	StatusSkip
)

// String returns the harness result string for the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "pass"
	case StatusFailure:
		return "fail"
	case StatusSkip:
		return "skip"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Verdict is the single outcome of one run. Reason is empty for Success.
type Verdict struct {
	Status Status
	Reason string
}

// ProbeMismatch records one failing probe: where it read, what it expected,
// and what it observed. Channels is 3 for probe rgb and 4 for probe rgba.
type ProbeMismatch struct {
	X, Y     int
	Expected Color
	Observed Color
	Channels int
}

// String formats the mismatch for diagnostics.
func (p ProbeMismatch) String() string {
	return fmt.Sprintf("probe at (%d, %d): expected %v, observed %v",
		p.X, p.Y, p.Expected, p.Observed)
}

// ScriptError reports a malformed script: an unknown command, a bad
// comparator token, an unresolved uniform name, or an unreadable file.
// Script errors are always fatal.
type ScriptError struct {
	Line string // offending line or identifier, may be empty
	Msg  string
}

func (e *ScriptError) Error() string {
	if e.Line == "" {
		return "shaderscript: " + e.Msg
	}
	return fmt.Sprintf("shaderscript: %s: %q", e.Msg, e.Line)
}

// BuildError reports a failed shader compile or program link. Diagnostic
// carries the platform's message verbatim.
type BuildError struct {
	Op         string // "compile" or "link"
	Stage      StageKind
	Diagnostic string
}

func (e *BuildError) Error() string {
	if e.Op == "compile" {
		return fmt.Sprintf("shaderscript: %s shader compile failed: %s", e.Stage, e.Diagnostic)
	}
	return fmt.Sprintf("shaderscript: program link failed: %s", e.Diagnostic)
}

// resultAggregator owns the evolving verdict of one run. It starts at
// Success and is tightened by events as they occur: a requirement miss
// skips, any fatal error fails, and probe mismatches fail without stopping
// the run. Once a run is skipped or failed it never improves.
type resultAggregator struct {
	verdict    Verdict
	mismatches []ProbeMismatch
}

// skip records an unmet requirement. It only downgrades a Success; a run
// that already failed stays failed.
func (a *resultAggregator) skip(reason string) {
	if a.verdict.Status == StatusSuccess {
		a.verdict = Verdict{Status: StatusSkip, Reason: reason}
	}
}

// fail records a fatal condition. Failure outranks Skip: a malformed script
// is a defect even if a requirement also missed.
func (a *resultAggregator) fail(err error) {
	if a.verdict.Status == StatusFailure {
		return
	}
	a.verdict = Verdict{Status: StatusFailure, Reason: err.Error()}
}

// probeMismatch records a soft failure. The run outcome becomes Failure but
// the caller keeps executing commands.
func (a *resultAggregator) probeMismatch(m ProbeMismatch) {
	a.mismatches = append(a.mismatches, m)
	if a.verdict.Status != StatusFailure {
		a.verdict = Verdict{Status: StatusFailure, Reason: m.String()}
	}
}

// final returns the verdict. With multiple probe mismatches the reason
// summarizes the count; the individual records stay available.
func (a *resultAggregator) final() Verdict {
	if len(a.mismatches) > 1 {
		return Verdict{
			Status: StatusFailure,
			Reason: fmt.Sprintf("%d probe mismatches, first: %s", len(a.mismatches), a.mismatches[0]),
		}
	}
	return a.verdict
}

// classify maps an error to a fail event, preserving build and script error
// detail. Any error reaching the aggregator is fatal by definition; probe
// mismatches never travel as errors.
func (a *resultAggregator) classify(err error) {
	var be *BuildError
	var se *ScriptError
	switch {
	case errors.As(err, &be), errors.As(err, &se):
		a.fail(err)
	default:
		a.fail(fmt.Errorf("shaderscript: %w", err))
	}
}
