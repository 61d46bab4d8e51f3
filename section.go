package shaderscript

import "strings"

// Section headers, matched by exact prefix on lines that start with '['.
const (
	headerRequire  = "[require]"
	headerVertex   = "[vertex shader]"
	headerGeometry = "[geometry shader]"
	headerFragment = "[fragment shader]"
	headerTest     = "[test]"
)

// sectionParser segments a script into a requirements block, shader source
// spans, and one trailing command block. Requirement lines are forwarded to
// the evaluator as they are read; shader spans are buffered and compiled
// when their section ends. Entering [test] stops section scanning for good.
type sectionParser struct {
	reqs *requirementEvaluator
	prog *programBuilder

	state SectionTag

	// Shader span bookkeeping: byte offset of the first content line seen
	// in the current shader state, or -1 while none has been seen. The
	// span grows implicitly until the section ends.
	shaderStart int

	// commandStart is the byte offset just past the [test] header line,
	// or -1 if the script has no [test] section.
	commandStart int

	// sections records every finalized section span, in script order.
	sections []Section
}

func newSectionParser(reqs *requirementEvaluator, prog *programBuilder) *sectionParser {
	return &sectionParser{
		reqs:         reqs,
		prog:         prog,
		shaderStart:  -1,
		commandStart: -1,
	}
}

// parse drives the state machine over the whole script. It returns a skip
// reason when a requirement misses, or an error for malformed requirement
// lines and failed stage compiles. Either outcome abandons the rest of the
// script.
func (p *sectionParser) parse(s *Script) (skipReason string, err error) {
	sectionStart := 0
	for {
		line, start, ok := s.nextLine()
		if !ok {
			// End of script while a section is still open: synthesize the
			// end-of-section event so a trailing shader or requirement
			// block with no closing header is still finalized.
			return "", p.leaveState(s, sectionStart, s.Len())
		}

		if strings.HasPrefix(line, "[") {
			next, matched := matchHeader(line)
			if !matched {
				// Not one of the fixed headers: the state is unchanged and
				// the line stays inside whatever span is open.
				continue
			}
			if err := p.leaveState(s, sectionStart, start); err != nil {
				return "", err
			}
			p.state = next
			p.shaderStart = -1
			sectionStart = start
			if next == SectionTest {
				// The command block starts just past the header line and is
				// consumed lazily by the command interpreter.
				p.commandStart = s.pos
				p.sections = append(p.sections, Section{Tag: SectionTest, Start: p.commandStart, End: s.Len()})
				return "", nil
			}
			continue
		}

		switch {
		case p.state == SectionRequirements:
			reason, err := p.reqs.evaluate(line)
			if err != nil {
				return "", err
			}
			if reason != "" {
				return reason, nil
			}
		case p.state.isShader():
			if p.shaderStart < 0 {
				p.shaderStart = start
			}
		}
	}
}

// leaveState finalizes the section that is ending at byte offset end.
// Leaving a shader state compiles the buffered span immediately; leaving
// None or Requirements takes no action beyond recording the span.
func (p *sectionParser) leaveState(s *Script, start, end int) error {
	p.sections = append(p.sections, Section{Tag: p.state, Start: start, End: end})
	if !p.state.isShader() {
		return nil
	}
	src := ""
	if p.shaderStart >= 0 && p.shaderStart < end {
		src = s.Text()[p.shaderStart:end]
	}
	return p.prog.compileStage(p.state.stageKind(), src)
}

// matchHeader tests a bracket line against the fixed header set.
func matchHeader(line string) (SectionTag, bool) {
	switch {
	case strings.HasPrefix(line, headerRequire):
		return SectionRequirements, true
	case strings.HasPrefix(line, headerVertex):
		return SectionVertex, true
	case strings.HasPrefix(line, headerGeometry):
		return SectionGeometry, true
	case strings.HasPrefix(line, headerFragment):
		return SectionFragment, true
	case strings.HasPrefix(line, headerTest):
		return SectionTest, true
	default:
		return SectionNone, false
	}
}
