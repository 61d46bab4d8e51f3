package shaderscript

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseSections(t *testing.T, env *fakeEnv, text string) (*sectionParser, string, error) {
	t.Helper()
	prog := newProgramBuilder(env)
	p := newSectionParser(&requirementEvaluator{caps: snapshotCapabilities(env)}, prog)
	skip, err := p.parse(NewScript(text))
	return p, skip, err
}

func TestSectionParserSpans(t *testing.T) {
	text := "[require]\n" +
		"GL >= 1.0\n" +
		"[vertex shader]\n" +
		"void main() {}\n" +
		"[fragment shader]\n" +
		"void frag() {}\n" +
		"[test]\n" +
		"clear\n"

	env := newFakeEnv()
	p, skip, err := parseSections(t, env, text)
	if err != nil || skip != "" {
		t.Fatalf("parse: skip=%q err=%v", skip, err)
	}

	// The command block span starts just past the [test] header line.
	wantCommandStart := strings.Index(text, "clear\n")
	if p.commandStart != wantCommandStart {
		t.Errorf("commandStart = %d, want %d", p.commandStart, wantCommandStart)
	}

	want := []Section{
		{Tag: SectionNone, Start: 0, End: 0},
		{Tag: SectionRequirements, Start: 0, End: strings.Index(text, "[vertex")},
		{Tag: SectionVertex, Start: strings.Index(text, "[vertex"), End: strings.Index(text, "[fragment")},
		{Tag: SectionFragment, Start: strings.Index(text, "[fragment"), End: strings.Index(text, "[test]")},
		{Tag: SectionTest, Start: wantCommandStart, End: len(text)},
	}
	if diff := cmp.Diff(want, p.sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}

	// Each shader section compiled exactly when it ended, vertex first.
	wantCalls := []string{
		"compile vertex 15 bytes",
		"compile fragment 15 bytes",
	}
	if diff := cmp.Diff(wantCalls, env.calls); diff != "" {
		t.Errorf("environment calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionParserEOFFinalizesShader(t *testing.T) {
	// No [test] section and no trailing newline: the fragment span still
	// compiles at end of script.
	text := "[fragment shader]\nvoid frag() {}"
	env := newFakeEnv()
	p, skip, err := parseSections(t, env, text)
	if err != nil || skip != "" {
		t.Fatalf("parse: skip=%q err=%v", skip, err)
	}
	if p.commandStart != -1 {
		t.Errorf("commandStart = %d, want -1", p.commandStart)
	}
	if len(env.calls) != 1 || env.calls[0] != "compile fragment 14 bytes" {
		t.Errorf("calls = %v, want one fragment compile of 14 bytes", env.calls)
	}
}

func TestSectionParserUnmatchedBracket(t *testing.T) {
	// A bracket line that is not a known header neither changes state nor
	// finalizes the open section; it stays inside the shader span.
	text := "[vertex shader]\n" +
		"[[block]] struct S {};\n" +
		"void main() {}\n"
	env := newFakeEnv()
	_, skip, err := parseSections(t, env, text)
	if err != nil || skip != "" {
		t.Fatalf("parse: skip=%q err=%v", skip, err)
	}
	if len(env.calls) != 1 {
		t.Fatalf("calls = %v, want exactly one compile", env.calls)
	}
	// The span starts at the first content line after the header. Bracket
	// lines never open a span, so it begins at "void main".
	if env.calls[0] != "compile vertex 15 bytes" {
		t.Errorf("call = %q, want compile of the final line only", env.calls[0])
	}
}

func TestSectionParserRequirementSkipAbandonsScript(t *testing.T) {
	text := "[require]\n" +
		"GL >= 99.0\n" +
		"[vertex shader]\n" +
		"void main() {}\n"
	env := newFakeEnv()
	env.apiVersion = 3.0
	_, skip, err := parseSections(t, env, text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if skip == "" {
		t.Fatal("expected a skip reason")
	}
	if len(env.calls) != 0 {
		t.Errorf("shader compiled after requirement miss: %v", env.calls)
	}
}

func TestSectionParserStageOrder(t *testing.T) {
	// Sections in scrambled source order still attach vertex, geometry,
	// fragment.
	text := "[fragment shader]\nf\n" +
		"[vertex shader]\nv\n" +
		"[geometry shader]\ng\n" +
		"[test]\n"
	env := newFakeEnv()
	prog := newProgramBuilder(env)
	p := newSectionParser(&requirementEvaluator{caps: snapshotCapabilities(env)}, prog)
	if _, err := p.parse(NewScript(text)); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := prog.linkAndUse(); err != nil {
		t.Fatalf("link: %v", err)
	}

	// fragment compiled first (handle 1), then vertex (2), then geometry
	// (3); the link order must be vertex, geometry, fragment.
	wantLink := "link [2 3 1]"
	found := false
	for _, c := range env.calls {
		if c == wantLink {
			found = true
		}
	}
	if !found {
		t.Errorf("calls = %v, want %q", env.calls, wantLink)
	}
}

func TestSectionParserCompileFailure(t *testing.T) {
	text := "[vertex shader]\nbroken\n[test]\n"
	env := newFakeEnv()
	env.compileErr = &ScriptError{Msg: "syntax error at line 1"}
	_, _, err := parseSections(t, env, text)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	be, ok := err.(*BuildError)
	if !ok {
		t.Fatalf("error is %T, want *BuildError", err)
	}
	if be.Op != "compile" || be.Stage != StageVertex {
		t.Errorf("BuildError = %+v, want compile failure for the vertex stage", be)
	}
	if !strings.Contains(be.Diagnostic, "syntax error") {
		t.Errorf("diagnostic %q does not carry the platform message", be.Diagnostic)
	}
}

func TestScriptNextLine(t *testing.T) {
	s := NewScript("a\nbb\n\nc")
	type rec struct {
		line  string
		start int
	}
	var got []rec
	for {
		line, start, ok := s.nextLine()
		if !ok {
			break
		}
		got = append(got, rec{line, start})
	}
	want := []rec{{"a", 0}, {"bb", 2}, {"", 5}, {"c", 6}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(rec{})); diff != "" {
		t.Errorf("nextLine sequence mismatch (-want +got):\n%s", diff)
	}
}
