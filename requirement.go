package shaderscript

import (
	"fmt"
	"strings"
)

// Comparator is a binary comparison operator from a requirement line.
type Comparator int

const (
	CmpEqual Comparator = iota
	CmpNotEqual
	CmpLess
	CmpLessEqual
	CmpGreater
	CmpGreaterEqual
)

// String returns the comparator's script token.
func (c Comparator) String() string {
	switch c {
	case CmpEqual:
		return "=="
	case CmpNotEqual:
		return "!="
	case CmpLess:
		return "<"
	case CmpLessEqual:
		return "<="
	case CmpGreater:
		return ">"
	case CmpGreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("Comparator(%d)", int(c))
	}
}

// Compare evaluates "have c want". Comparison is exact floating point with
// no tolerance, including == and !=. Versions that do not round-trip
// through decimal exactly will not compare equal; scripts are written
// against that.
func (c Comparator) Compare(have, want float64) bool {
	switch c {
	case CmpEqual:
		return have == want
	case CmpNotEqual:
		return have != want
	case CmpLess:
		return have < want
	case CmpLessEqual:
		return have <= want
	case CmpGreater:
		return have > want
	case CmpGreaterEqual:
		return have >= want
	default:
		return false
	}
}

// parseComparator lexes a comparison operator from the front of s,
// trying the two-character forms before the one-character forms so that
// "<=" never parses as "<" followed by junk. An unparseable token is a
// malformed script, distinct from an unmet requirement.
func parseComparator(s string) (Comparator, string, error) {
	s = eatWhitespace(s)
	two := [...]struct {
		tok string
		cmp Comparator
	}{
		{"==", CmpEqual},
		{"!=", CmpNotEqual},
		{"<=", CmpLessEqual},
		{">=", CmpGreaterEqual},
	}
	for _, t := range two {
		if strings.HasPrefix(s, t.tok) {
			return t.cmp, s[2:], nil
		}
	}
	if strings.HasPrefix(s, "<") {
		return CmpLess, s[1:], nil
	}
	if strings.HasPrefix(s, ">") {
		return CmpGreater, s[1:], nil
	}
	return 0, s, &ScriptError{Line: s, Msg: "invalid comparison in test script"}
}

// capabilities is the snapshot of environment capabilities taken once at
// the start of a run and treated as constant afterwards. Extension lookups
// go to the environment on first use and are cached so a name is queried
// at most once per run.
type capabilities struct {
	env         Environment
	apiVersion  float64
	glslVersion float64
	extensions  map[string]bool
}

func snapshotCapabilities(env Environment) *capabilities {
	c := &capabilities{
		env:         env,
		apiVersion:  env.APIVersion(),
		glslVersion: env.ShadingLanguageVersion(),
		extensions:  make(map[string]bool),
	}
	Logger().Info("capability snapshot",
		"api_version", c.apiVersion,
		"glsl_version", c.glslVersion)
	return c
}

func (c *capabilities) extension(name string) bool {
	if have, ok := c.extensions[name]; ok {
		return have
	}
	have := c.env.ExtensionSupported(name)
	c.extensions[name] = have
	return have
}

// requirementEvaluator decides, one requirement line at a time, whether the
// run continues, skips, or fails.
type requirementEvaluator struct {
	caps *capabilities
}

// evaluate parses one requirement line. It returns a non-empty skip reason
// when the requirement is unmet, an error when the line is malformed, and
// ("", nil) when the run should continue. Prefixes are tested in priority
// order; unrecognized lines are ignored, not errors.
func (e *requirementEvaluator) evaluate(line string) (skipReason string, err error) {
	trimmed := eatWhitespace(line)
	switch {
	case strings.HasPrefix(trimmed, "GL_"):
		name, _ := scanToken(trimmed)
		if !e.caps.extension(name) {
			return fmt.Sprintf("test requires extension %s", name), nil
		}
	case strings.HasPrefix(trimmed, "!GL_"):
		name, _ := scanToken(trimmed[1:])
		if e.caps.extension(name) {
			return fmt.Sprintf("test requires extension %s to be unsupported", name), nil
		}
	case strings.HasPrefix(trimmed, "GLSL"):
		return e.versionRequirement(trimmed[len("GLSL"):], "GLSL", e.caps.glslVersion)
	case strings.HasPrefix(trimmed, "GL"):
		return e.versionRequirement(trimmed[len("GL"):], "GL", e.caps.apiVersion)
	default:
		if trimmed != "" {
			Logger().Warn("ignoring unrecognized requirement line", "line", line)
		}
	}
	return "", nil
}

// versionRequirement handles "GL <cmp> <float>" and "GLSL <cmp> <float>".
func (e *requirementEvaluator) versionRequirement(rest, what string, have float64) (string, error) {
	cmp, rest, err := parseComparator(rest)
	if err != nil {
		return "", err
	}
	want, _, ok := scanFloat(rest)
	if !ok {
		return "", &ScriptError{Line: rest, Msg: "malformed " + what + " version requirement"}
	}
	if !cmp.Compare(have, want) {
		return fmt.Sprintf("test requires %s version %s %.1f, actual version is %.1f",
			what, cmp, want, have), nil
	}
	return "", nil
}
