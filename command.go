package shaderscript

import "strings"

// CommandKind is the tag of one parsed command line.
type CommandKind int

const (
	// CmdComment covers blank, whitespace-only, and '#'-prefixed lines.
	CmdComment CommandKind = iota
	CmdClearColor
	CmdClear
	CmdDrawRect
	CmdOrtho
	CmdProbeRGB
	CmdProbeRGBA
	CmdUniform
	CmdUnknown
)

// Command is one parsed command-block line. Args holds the fixed-arity
// numeric arguments for the kind; Name and Type are set for CmdUniform.
type Command struct {
	Kind CommandKind
	Args []float32
	Name string // uniform name
	Type string // uniform type tag, e.g. "vec4"
	Raw  string // the line as written, for diagnostics
}

// argCount is the fixed number of numeric arguments each kind decodes.
var argCount = map[CommandKind]int{
	CmdClearColor: 4,
	CmdDrawRect:   4,
	CmdProbeRGB:   5,
	CmdProbeRGBA:  6,
}

// parseCommand tokenizes one command line: a keyword (one or two tokens) is
// extracted first, then a fixed-arity decoder reads the arguments. Dispatch
// does not depend on prefix ordering, so "clear" and "clear color" cannot
// shadow each other.
//
// A line with fewer well-formed numbers than its command requires is a
// malformed script and fails loudly. CmdUnknown is returned without an
// error; the interpreter decides its severity.
func parseCommand(line string) (Command, error) {
	trimmed := eatWhitespace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Command{Kind: CmdComment, Raw: line}, nil
	}

	keyword, rest := scanToken(trimmed)
	switch keyword {
	case "clear":
		sub, subRest := scanToken(rest)
		if sub == "" {
			return Command{Kind: CmdClear, Raw: line}, nil
		}
		if sub == "color" {
			return decodeArgs(CmdClearColor, subRest, line)
		}
	case "draw":
		sub, subRest := scanToken(rest)
		if sub == "rect" {
			return decodeArgs(CmdDrawRect, subRest, line)
		}
	case "ortho":
		return Command{Kind: CmdOrtho, Raw: line}, nil
	case "probe":
		sub, subRest := scanToken(rest)
		switch sub {
		case "rgba":
			return decodeArgs(CmdProbeRGBA, subRest, line)
		case "rgb":
			return decodeArgs(CmdProbeRGB, subRest, line)
		}
	case "uniform":
		return parseUniform(rest, line)
	}
	return Command{Kind: CmdUnknown, Raw: line}, nil
}

func decodeArgs(kind CommandKind, rest, line string) (Command, error) {
	args, err := parseFloats(rest, argCount[kind], line)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: kind, Args: args, Raw: line}, nil
}

// parseUniform reads "<name> <type> args...". The name is required and
// resolved at execution time. Only the vec4 type decodes arguments here;
// an unrecognized type tag keeps the command as a recognized uniform
// command that the interpreter treats as a no-op.
func parseUniform(rest, line string) (Command, error) {
	name, rest := scanToken(rest)
	if name == "" {
		return Command{}, &ScriptError{Line: line, Msg: "uniform command missing name"}
	}
	typ, rest := scanToken(rest)
	cmd := Command{Kind: CmdUniform, Name: name, Type: typ, Raw: line}
	if typ == "vec4" {
		args, err := parseFloats(rest, 4, line)
		if err != nil {
			return Command{}, err
		}
		cmd.Args = args
	}
	return cmd, nil
}
