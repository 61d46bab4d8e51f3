// Command shaderscript runs GPU conformance test scripts and reports a
// pass/fail/skip verdict for each.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/shaderscript"
	"github.com/gogpu/shaderscript/backend"
	"github.com/gogpu/shaderscript/backend/software"
	_ "github.com/gogpu/shaderscript/backend/wgpu"
)

func main() {
	var (
		backendName = flag.String("backend", "", "rendering backend (default: best available)")
		width       = flag.Int("width", 250, "window width in pixels")
		height      = flag.Int("height", 250, "window height in pixels")
		tolerance   = flag.Float64("tolerance", 0.01, "per-channel probe tolerance")
		verbose     = flag.Bool("v", false, "verbose logging")
		dumpDir     = flag.String("dump-dir", "", "write a PNG of the framebuffer for each failed script (software backend only)")
		timeout     = flag.Duration("timeout", 30*time.Second, "wall-clock budget per script (0 disables)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] script.shader_test...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	shaderscript.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts := shaderscript.Options{
		Width:          *width,
		Height:         *height,
		ProbeTolerance: float32(*tolerance),
	}

	var passed, failed, skipped int
	for _, path := range flag.Args() {
		verdict := runWithBudget(*timeout, *backendName, opts, path, *dumpDir)
		switch verdict.Status {
		case shaderscript.StatusSuccess:
			passed++
			fmt.Printf("pass: %s\n", path)
		case shaderscript.StatusSkip:
			skipped++
			fmt.Printf("skip: %s: %s\n", path, verdict.Reason)
		default:
			failed++
			fmt.Printf("fail: %s: %s\n", path, verdict.Reason)
		}
	}

	if len(flag.Args()) > 1 {
		fmt.Printf("%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runWithBudget enforces the per-script wall-clock budget. A run that blows
// the budget is reported as a failure; its goroutine and environment are
// abandoned, since a wedged GPU submission cannot be interrupted from here.
func runWithBudget(budget time.Duration, backendName string, opts shaderscript.Options, path, dumpDir string) shaderscript.Verdict {
	if budget <= 0 {
		return runScript(backendName, opts, path, dumpDir)
	}
	done := make(chan shaderscript.Verdict, 1)
	go func() {
		done <- runScript(backendName, opts, path, dumpDir)
	}()
	select {
	case v := <-done:
		return v
	case <-time.After(budget):
		return shaderscript.Verdict{
			Status: shaderscript.StatusFailure,
			Reason: fmt.Sprintf("timed out after %s", budget),
		}
	}
}

// runScript runs one script file in a fresh environment. Every script gets
// its own environment so state from one run cannot leak into the next.
func runScript(backendName string, opts shaderscript.Options, path, dumpDir string) shaderscript.Verdict {
	env, err := newEnvironment(backendName, opts.Width, opts.Height)
	if err != nil {
		log.Fatalf("create %q backend: %v", backendName, err)
	}
	defer env.Close()

	verdict := shaderscript.RunFile(env, opts, path)

	if dumpDir != "" && verdict.Status == shaderscript.StatusFailure {
		if sw, ok := env.(*software.Env); ok {
			name := filepath.Base(path) + ".png"
			out := filepath.Join(dumpDir, name)
			if err := sw.SavePNG(out); err != nil {
				shaderscript.Logger().Warn("could not dump framebuffer", "path", out, "error", err)
			}
		}
	}
	return verdict
}

func newEnvironment(name string, width, height int) (shaderscript.Environment, error) {
	if name == "" {
		return backend.Default(width, height)
	}
	return backend.New(name, width, height)
}
