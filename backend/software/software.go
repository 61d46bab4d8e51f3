// Package software provides a pure-Go reference environment for the script
// interpreter. Shader stages are parsed and validated with gogpu/naga, and
// rasterization is flat-color: a rectangle fills with the most recently
// assigned vec4 uniform, which matches the constant-color fragment shaders
// conformance scripts use. No GPU is required, making this environment the
// fallback for CI machines and suite development.
package software

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderscript"
	"github.com/gogpu/shaderscript/backend"
)

// Environment errors.
var (
	// ErrClosed is returned when operating on a closed environment.
	ErrClosed = errors.New("software: environment is closed")

	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("software: invalid dimensions")

	// ErrOutOfBounds is returned by ReadPixel for coordinates outside the
	// render target.
	ErrOutOfBounds = errors.New("software: pixel coordinates out of bounds")
)

func init() {
	backend.Register(backend.NameSoftware, func(width, height int) (shaderscript.Environment, error) {
		return New(width, height)
	})
}

// stage is one validated shader stage: its kind, lowered IR, and the
// uniform names reflected from the IR's global variables.
type stage struct {
	kind     shaderscript.StageKind
	module   *ir.Module
	uniforms []string
}

// program is a set of linked stages with a uniform location table.
type program struct {
	names  map[string]shaderscript.UniformLocation
	order  []string
	values [][4]float32
}

// Env is an in-memory implementation of shaderscript.Environment. The
// framebuffer is stored bottom-left origin, matching probe coordinates.
//
// Env is not safe for concurrent use.
type Env struct {
	width, height int
	fb            []shaderscript.Color

	clearColor shaderscript.Color
	// drawColor is the flat-shading fill color; white until a vec4
	// uniform is assigned.
	drawColor shaderscript.Color
	ortho     bool

	stages   map[shaderscript.StageHandle]*stage
	programs map[shaderscript.ProgramHandle]*program
	active   *program

	extensions  map[string]bool
	apiVersion  float64
	glslVersion float64

	nextStage   shaderscript.StageHandle
	nextProgram shaderscript.ProgramHandle
	closed      bool
}

// compile-time interface check
var _ shaderscript.Environment = (*Env)(nil)

// New creates a software environment with the given render target size.
// The target starts fully transparent black. Capability defaults are
// permissive (API and shading-language version 4.6, no extensions); use
// SetVersions and SetExtension to model a specific platform.
func New(width, height int) (*Env, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Env{
		width:       width,
		height:      height,
		fb:          make([]shaderscript.Color, width*height),
		drawColor:   shaderscript.Color{1, 1, 1, 1},
		stages:      make(map[shaderscript.StageHandle]*stage),
		programs:    make(map[shaderscript.ProgramHandle]*program),
		extensions:  make(map[string]bool),
		apiVersion:  4.6,
		glslVersion: 4.6,
	}, nil
}

// SetExtension declares an extension as supported or unsupported.
func (e *Env) SetExtension(name string, supported bool) {
	e.extensions[name] = supported
}

// SetVersions overrides the reported API and shading-language versions.
func (e *Env) SetVersions(api, glsl float64) {
	e.apiVersion = api
	e.glslVersion = glsl
}

// ExtensionSupported reports whether the named extension was declared.
func (e *Env) ExtensionSupported(name string) bool {
	return e.extensions[name]
}

// APIVersion returns the configured API version.
func (e *Env) APIVersion() float64 { return e.apiVersion }

// ShadingLanguageVersion returns the configured shading-language version.
func (e *Env) ShadingLanguageVersion() float64 { return e.glslVersion }

// CompileStage parses and lowers WGSL source through naga. The stage is
// never executed, but validation catches the same authoring errors a GPU
// build would, and the lowered IR supplies uniform reflection.
func (e *Env) CompileStage(kind shaderscript.StageKind, source string) (shaderscript.StageHandle, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("software: empty %s shader source", kind)
	}
	ast, err := naga.Parse(source)
	if err != nil {
		return 0, fmt.Errorf("software: parse %s shader: %w", kind, err)
	}
	mod, err := naga.Lower(ast)
	if err != nil {
		return 0, fmt.Errorf("software: validate %s shader: %w", kind, err)
	}
	if len(mod.EntryPoints) == 0 {
		return 0, fmt.Errorf("software: %s shader has no entry point", kind)
	}

	st := &stage{kind: kind, module: mod}
	for _, gv := range mod.GlobalVariables {
		if gv.Space == ir.SpaceUniform && gv.Name != "" {
			st.uniforms = append(st.uniforms, gv.Name)
		}
	}

	e.nextStage++
	e.stages[e.nextStage] = st
	return e.nextStage, nil
}

// LinkProgram merges the stages' uniform tables into a program and assigns
// locations in first-seen order.
func (e *Env) LinkProgram(stages []shaderscript.StageHandle) (shaderscript.ProgramHandle, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if len(stages) == 0 {
		return 0, errors.New("software: cannot link a program with no stages")
	}
	p := &program{names: make(map[string]shaderscript.UniformLocation)}
	for _, h := range stages {
		st, ok := e.stages[h]
		if !ok {
			return 0, fmt.Errorf("software: unknown stage handle %d", h)
		}
		for _, name := range st.uniforms {
			if _, seen := p.names[name]; seen {
				continue
			}
			p.names[name] = shaderscript.UniformLocation(len(p.order))
			p.order = append(p.order, name)
			p.values = append(p.values, [4]float32{})
		}
	}
	e.nextProgram++
	e.programs[e.nextProgram] = p
	return e.nextProgram, nil
}

// UseProgram makes a linked program current.
func (e *Env) UseProgram(h shaderscript.ProgramHandle) error {
	p, ok := e.programs[h]
	if !ok {
		return fmt.Errorf("software: unknown program handle %d", h)
	}
	e.active = p
	return nil
}

// SetClearColor sets the persisted clear color.
func (e *Env) SetClearColor(c shaderscript.Color) {
	e.clearColor = c
}

// Clear fills the color buffer with the clear color when the mask selects
// it. A zero mask clears nothing.
func (e *Env) Clear(mask shaderscript.ClearMask) error {
	if e.closed {
		return ErrClosed
	}
	if mask&shaderscript.ClearColorBit == 0 {
		return nil
	}
	for i := range e.fb {
		e.fb[i] = e.clearColor
	}
	return nil
}

// DrawRect fills an axis-aligned rectangle with the current flat-shading
// color. Without the orthographic projection, coordinates are normalized
// device coordinates ([-1,1] maps onto the viewport); with it, they are
// pixels.
func (e *Env) DrawRect(x, y, w, h float32) error {
	if e.closed {
		return ErrClosed
	}
	var x0, y0, x1, y1 float32
	if e.ortho {
		x0, y0, x1, y1 = x, y, x+w, y+h
	} else {
		x0 = (x + 1) / 2 * float32(e.width)
		y0 = (y + 1) / 2 * float32(e.height)
		x1 = (x + w + 1) / 2 * float32(e.width)
		y1 = (y + h + 1) / 2 * float32(e.height)
	}
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	ix0, iy0 := clamp(int(x0), 0, e.width), clamp(int(y0), 0, e.height)
	ix1, iy1 := clamp(int(x1), 0, e.width), clamp(int(y1), 0, e.height)
	for py := iy0; py < iy1; py++ {
		row := py * e.width
		for px := ix0; px < ix1; px++ {
			e.fb[row+px] = e.drawColor
		}
	}
	return nil
}

// InstallOrthoProjection switches rectangle coordinates to pixels.
func (e *Env) InstallOrthoProjection(_, _ int) {
	e.ortho = true
}

// ReadPixel returns the color at (x, y), origin bottom-left.
func (e *Env) ReadPixel(x, y int) (shaderscript.Color, error) {
	if e.closed {
		return shaderscript.Color{}, ErrClosed
	}
	if x < 0 || x >= e.width || y < 0 || y >= e.height {
		return shaderscript.Color{}, fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfBounds, x, y, e.width, e.height)
	}
	return e.fb[y*e.width+x], nil
}

// UniformLocation resolves a uniform name against a linked program.
func (e *Env) UniformLocation(h shaderscript.ProgramHandle, name string) (shaderscript.UniformLocation, bool) {
	p, ok := e.programs[h]
	if !ok {
		return 0, false
	}
	loc, ok := p.names[name]
	return loc, ok
}

// SetUniformVec4 stores the value and adopts it as the flat-shading color.
func (e *Env) SetUniformVec4(loc shaderscript.UniformLocation, v [4]float32) error {
	if e.active == nil {
		return errors.New("software: no active program")
	}
	if int(loc) < 0 || int(loc) >= len(e.active.values) {
		return fmt.Errorf("software: uniform location %d out of range", loc)
	}
	e.active.values[loc] = v
	e.drawColor = shaderscript.Color(v)
	return nil
}

// Viewport returns the render target size.
func (e *Env) Viewport() (int, int) { return e.width, e.height }

// Close releases the framebuffer.
func (e *Env) Close() error {
	e.closed = true
	e.fb = nil
	e.stages = nil
	e.programs = nil
	e.active = nil
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
