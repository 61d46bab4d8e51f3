package shaderscript

import "fmt"

// commandInterpreter executes the command block line by line against the
// environment. Probing failures are soft: they fail the run but do not stop
// it. Every other fatal condition aborts the remaining commands.
type commandInterpreter struct {
	env  Environment
	prog *programBuilder
	agg  *resultAggregator
	opts Options

	// clearMask accumulates clear bits for the whole run. The mask only
	// ever gains bits and is never reset between clear color commands.
	// In particular, a "clear" issued before any "clear color" clears
	// nothing. Scripts depend on this, so don't "fix" it.
	clearMask ClearMask
}

// run scans the command block from the recorded start offset to end of
// script. It reports events to the aggregator and returns when the block
// is exhausted or a fatal condition occurs.
func (ci *commandInterpreter) run(s *Script, start int) {
	s.seek(start)
	for {
		line, _, ok := s.nextLine()
		if !ok {
			return
		}
		cmd, err := parseCommand(line)
		if err != nil {
			ci.agg.classify(err)
			return
		}
		if err := ci.execute(cmd); err != nil {
			ci.agg.classify(err)
			return
		}
	}
}

// execute runs one parsed command. A returned error is fatal; probe
// mismatches are reported to the aggregator directly and return nil.
func (ci *commandInterpreter) execute(cmd Command) error {
	log := Logger()
	switch cmd.Kind {
	case CmdComment:
		return nil

	case CmdClearColor:
		ci.env.SetClearColor(Color{cmd.Args[0], cmd.Args[1], cmd.Args[2], cmd.Args[3]})
		ci.clearMask |= ClearColorBit
		return nil

	case CmdClear:
		return ci.env.Clear(ci.clearMask)

	case CmdDrawRect:
		log.Debug("draw rect", "x", cmd.Args[0], "y", cmd.Args[1], "w", cmd.Args[2], "h", cmd.Args[3])
		return ci.env.DrawRect(cmd.Args[0], cmd.Args[1], cmd.Args[2], cmd.Args[3])

	case CmdOrtho:
		w, h := ci.env.Viewport()
		ci.env.InstallOrthoProjection(w, h)
		return nil

	case CmdProbeRGB:
		return ci.probe(cmd, 3)

	case CmdProbeRGBA:
		return ci.probe(cmd, 4)

	case CmdUniform:
		return ci.setUniform(cmd)

	default:
		return &ScriptError{Line: cmd.Raw, Msg: "unknown command"}
	}
}

// probe reads back one pixel and compares it channel-wise against the
// expected color within the configured tolerance. A mismatch marks the run
// Failure but execution continues, so later probes are still reported.
func (ci *commandInterpreter) probe(cmd Command, channels int) error {
	x, y := int(cmd.Args[0]), int(cmd.Args[1])
	expected := Color{}
	copy(expected[:], cmd.Args[2:2+channels])

	observed, err := ci.env.ReadPixel(x, y)
	if err != nil {
		return fmt.Errorf("read pixel at (%d, %d): %w", x, y, err)
	}
	if !colorsClose(observed, expected, ci.opts.ProbeTolerance, channels) {
		ci.agg.probeMismatch(ProbeMismatch{
			X: x, Y: y,
			Expected: expected,
			Observed: observed,
			Channels: channels,
		})
	}
	return nil
}

// setUniform assigns a uniform on the active program. An unresolved name is
// fatal; an unrecognized type tag is a silent no-op. Existing scripts rely
// on both sides of that asymmetry.
func (ci *commandInterpreter) setUniform(cmd Command) error {
	loc, ok := ci.prog.uniformLocation(cmd.Name)
	if !ok {
		return &ScriptError{Line: cmd.Name, Msg: "cannot get location of uniform"}
	}
	if cmd.Type != "vec4" {
		Logger().Warn("ignoring uniform with unrecognized type", "name", cmd.Name, "type", cmd.Type)
		return nil
	}
	var v [4]float32
	copy(v[:], cmd.Args)
	return ci.env.SetUniformVec4(loc, v)
}
