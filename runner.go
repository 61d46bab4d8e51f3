package shaderscript

import (
	"fmt"
	"os"
)

// Options configure one run.
type Options struct {
	// Width and Height declare the test viewport in pixels. The
	// environment's render target is expected to match.
	Width, Height int

	// ProbeTolerance is the per-channel tolerance for probe comparisons.
	ProbeTolerance float32
}

// DefaultOptions returns the reference defaults: a 250x250 viewport and a
// 0.01 per-channel probe tolerance.
func DefaultOptions() Options {
	return Options{Width: 250, Height: 250, ProbeTolerance: 0.01}
}

// Runner drives one script through the full pipeline: section parsing,
// requirement evaluation, shader build, and command execution. A Runner is
// single-use; create a fresh one per script. The environment is owned by
// the caller and may be reused across runs.
//
// The two-phase contract mirrors the surrounding harness's needs:
// Prepare parses sections, evaluates requirements, and builds the program;
// RunCommands executes the command block. Each phase yields a verdict, and
// a run produces exactly one terminal verdict overall.
type Runner struct {
	env  Environment
	opts Options

	agg          resultAggregator
	script       *Script
	prog         *programBuilder
	commandStart int
	sections     []Section
	prepared     bool
	done         bool
}

// New creates a runner against the given environment.
func New(env Environment, opts Options) *Runner {
	return &Runner{env: env, opts: opts, commandStart: -1}
}

// Prepare runs the section parser, requirement evaluator, and shader build
// over the script text. It returns Success when command execution should
// proceed, Skip when a requirement is unmet, and Failure for malformed
// scripts and build errors. Capabilities are snapshotted once on entry and
// treated as constants for the rest of the run.
func (r *Runner) Prepare(scriptText string) Verdict {
	if r.prepared {
		r.agg.fail(fmt.Errorf("shaderscript: runner is single-use, Prepare called twice"))
		return r.agg.final()
	}
	r.prepared = true

	r.script = NewScript(scriptText)
	r.prog = newProgramBuilder(r.env)

	caps := snapshotCapabilities(r.env)
	parser := newSectionParser(&requirementEvaluator{caps: caps}, r.prog)

	skipReason, err := parser.parse(r.script)
	r.sections = parser.sections
	switch {
	case err != nil:
		r.agg.classify(err)
		r.done = true
	case skipReason != "":
		r.agg.skip(skipReason)
		r.done = true
	default:
		r.commandStart = parser.commandStart
		if err := r.prog.linkAndUse(); err != nil {
			r.agg.classify(err)
			r.done = true
		}
	}
	return r.agg.final()
}

// PrepareFile reads a script from disk and prepares it. An unreadable file
// is fatal before any section state is entered.
func (r *Runner) PrepareFile(path string) Verdict {
	text, err := os.ReadFile(path)
	if err != nil {
		r.prepared = true
		r.done = true
		r.agg.fail(&ScriptError{Line: path, Msg: "could not read script file"})
		return r.agg.final()
	}
	return r.Prepare(string(text))
}

// RunCommands executes the command block recorded by Prepare. If Prepare
// skipped or failed, that verdict stands and nothing executes. A script
// without a [test] section runs zero commands and succeeds if requirements
// and build did.
func (r *Runner) RunCommands() Verdict {
	if !r.prepared {
		r.agg.fail(fmt.Errorf("shaderscript: RunCommands called before Prepare"))
		return r.agg.final()
	}
	if r.done {
		return r.agg.final()
	}
	r.done = true

	if r.commandStart < 0 {
		return r.agg.final()
	}
	ci := &commandInterpreter{
		env:  r.env,
		prog: r.prog,
		agg:  &r.agg,
		opts: r.opts,
	}
	ci.run(r.script, r.commandStart)
	return r.agg.final()
}

// ProbeFailures returns every probe mismatch recorded during RunCommands,
// in command order.
func (r *Runner) ProbeFailures() []ProbeMismatch {
	return r.agg.mismatches
}

// Sections returns the section spans recorded during Prepare, in script
// order. Useful for tooling and tests.
func (r *Runner) Sections() []Section {
	return r.sections
}

// Run prepares and executes a script in one call with a fresh runner.
func Run(env Environment, opts Options, scriptText string) Verdict {
	r := New(env, opts)
	if v := r.Prepare(scriptText); v.Status != StatusSuccess {
		return v
	}
	return r.RunCommands()
}

// RunFile prepares and executes a script file in one call.
func RunFile(env Environment, opts Options, path string) Verdict {
	r := New(env, opts)
	if v := r.PrepareFile(path); v.Status != StatusSuccess {
		return v
	}
	return r.RunCommands()
}
