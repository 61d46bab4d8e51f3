package shaderscript

// programBuilder accumulates compiled stages during section parsing and
// links them into the run's single program. Stage handles live in growable
// per-stage slices owned by the run, so sequential runs in one process are
// independent.
type programBuilder struct {
	env Environment

	vertex   []StageHandle
	geometry []StageHandle
	fragment []StageHandle

	program ProgramHandle
	linked  bool

	// locations caches uniform name resolution, populated lazily on
	// first lookup.
	locations map[string]UniformLocation
}

func newProgramBuilder(env Environment) *programBuilder {
	return &programBuilder{
		env:       env,
		locations: make(map[string]UniformLocation),
	}
}

// compileStage compiles one finalized shader span immediately. A compile
// failure is fatal: a script-level shader that fails to build is a defect
// worth surfacing loudly, never silently skipped.
func (b *programBuilder) compileStage(kind StageKind, source string) error {
	h, err := b.env.CompileStage(kind, source)
	if err != nil {
		return &BuildError{Op: "compile", Stage: kind, Diagnostic: err.Error()}
	}
	Logger().Debug("compiled shader stage", "stage", kind, "bytes", len(source))
	switch kind {
	case StageVertex:
		b.vertex = append(b.vertex, h)
	case StageGeometry:
		b.geometry = append(b.geometry, h)
	case StageFragment:
		b.fragment = append(b.fragment, h)
	}
	return nil
}

// stageCount returns the total number of compiled stages across all kinds.
func (b *programBuilder) stageCount() int {
	return len(b.vertex) + len(b.geometry) + len(b.fragment)
}

// linkAndUse links the compiled stages into one program and makes it
// active. With zero stages no program is created and command execution
// proceeds against whatever state the environment already has. Attachment
// order is fixed: vertex stages, then geometry, then fragment, each group
// in source order.
func (b *programBuilder) linkAndUse() error {
	if b.stageCount() == 0 {
		Logger().Info("no shader stages, running without a program")
		return nil
	}

	stages := make([]StageHandle, 0, b.stageCount())
	stages = append(stages, b.vertex...)
	stages = append(stages, b.geometry...)
	stages = append(stages, b.fragment...)

	p, err := b.env.LinkProgram(stages)
	if err != nil {
		return &BuildError{Op: "link", Diagnostic: err.Error()}
	}
	if err := b.env.UseProgram(p); err != nil {
		return &BuildError{Op: "link", Diagnostic: err.Error()}
	}
	b.program = p
	b.linked = true
	Logger().Info("program linked",
		"vertex", len(b.vertex), "geometry", len(b.geometry), "fragment", len(b.fragment))
	return nil
}

// uniformLocation resolves a uniform name against the active program,
// consulting the lazy cache first.
func (b *programBuilder) uniformLocation(name string) (UniformLocation, bool) {
	if loc, ok := b.locations[name]; ok {
		return loc, true
	}
	if !b.linked {
		return 0, false
	}
	loc, ok := b.env.UniformLocation(b.program, name)
	if !ok {
		return 0, false
	}
	b.locations[name] = loc
	return loc, true
}
