package shaderscript

import (
	"errors"
	"fmt"
	"strings"
)

// fakeEnv is a recording Environment for tests. It logs every call in
// order so tests can assert on exact interpreter behavior without a GPU.
type fakeEnv struct {
	apiVersion  float64
	glslVersion float64
	extensions  map[string]bool

	// Fault injection.
	compileErr error
	linkErr    error
	drawErr    error
	readErr    error

	// Per-pixel readback results; readColor is the fallback.
	pixels    map[[2]int]Color
	readColor Color

	// uniforms maps resolvable names to locations.
	uniforms map[string]UniformLocation

	calls            []string
	extensionQueries map[string]int
	clearColor       Color
	uniformValues    map[UniformLocation][4]float32
	nextStage        StageHandle
	nextProgram      ProgramHandle
	width, height    int
}

var _ Environment = (*fakeEnv)(nil)

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		apiVersion:       4.6,
		glslVersion:      4.6,
		extensions:       map[string]bool{},
		pixels:           map[[2]int]Color{},
		uniforms:         map[string]UniformLocation{},
		extensionQueries: map[string]int{},
		uniformValues:    map[UniformLocation][4]float32{},
		width:            250,
		height:           250,
	}
}

func (f *fakeEnv) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeEnv) ExtensionSupported(name string) bool {
	f.extensionQueries[name]++
	return f.extensions[name]
}

func (f *fakeEnv) APIVersion() float64 { return f.apiVersion }

func (f *fakeEnv) ShadingLanguageVersion() float64 { return f.glslVersion }

func (f *fakeEnv) CompileStage(kind StageKind, source string) (StageHandle, error) {
	if f.compileErr != nil {
		return 0, f.compileErr
	}
	f.nextStage++
	f.record("compile %s %d bytes", kind, len(source))
	return f.nextStage, nil
}

func (f *fakeEnv) LinkProgram(stages []StageHandle) (ProgramHandle, error) {
	if f.linkErr != nil {
		return 0, f.linkErr
	}
	if len(stages) == 0 {
		return 0, errors.New("no stages")
	}
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = fmt.Sprintf("%d", s)
	}
	f.nextProgram++
	f.record("link [%s]", strings.Join(parts, " "))
	return f.nextProgram, nil
}

func (f *fakeEnv) UseProgram(p ProgramHandle) error {
	f.record("use %d", p)
	return nil
}

func (f *fakeEnv) SetClearColor(c Color) {
	f.clearColor = c
	f.record("clear color %v", c)
}

func (f *fakeEnv) Clear(mask ClearMask) error {
	f.record("clear mask=%d", mask)
	return nil
}

func (f *fakeEnv) DrawRect(x, y, w, h float32) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	f.record("draw rect %g %g %g %g", x, y, w, h)
	return nil
}

func (f *fakeEnv) InstallOrthoProjection(width, height int) {
	f.record("ortho %dx%d", width, height)
}

func (f *fakeEnv) ReadPixel(x, y int) (Color, error) {
	if f.readErr != nil {
		return Color{}, f.readErr
	}
	f.record("read %d,%d", x, y)
	if c, ok := f.pixels[[2]int{x, y}]; ok {
		return c, nil
	}
	return f.readColor, nil
}

func (f *fakeEnv) UniformLocation(p ProgramHandle, name string) (UniformLocation, bool) {
	loc, ok := f.uniforms[name]
	return loc, ok
}

func (f *fakeEnv) SetUniformVec4(loc UniformLocation, v [4]float32) error {
	f.uniformValues[loc] = v
	f.record("uniform %d = %v", loc, v)
	return nil
}

func (f *fakeEnv) Viewport() (int, int) { return f.width, f.height }

func (f *fakeEnv) Close() error { return nil }
