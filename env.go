package shaderscript

import "fmt"

// StageKind identifies one pipeline stage of a shader program.
type StageKind int

// Pipeline stages in the order they are attached to a program.
const (
	StageVertex StageKind = iota
	StageGeometry
	StageFragment
)

// String returns the stage name as it appears in section headers.
func (k StageKind) String() string {
	switch k {
	case StageVertex:
		return "vertex"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

// StageHandle is an opaque handle to one compiled shader stage. Handles are
// owned by the program that attaches them and are never shared across
// programs. The zero value is invalid.
type StageHandle int

// ProgramHandle is an opaque handle to a linked program. The zero value
// means "no program".
type ProgramHandle int

// UniformLocation identifies one uniform within a linked program.
type UniformLocation int

// Color is an RGBA color with channels in [0, 1].
type Color [4]float32

// String formats the color the way probe diagnostics report it.
func (c Color) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", c[0], c[1], c[2], c[3])
}

// ClearMask is the set of buffers a clear command affects. The interpreter
// accumulates bits into the mask across a run and never removes them.
type ClearMask uint32

// ClearColorBit selects the color buffer. It is the only bit the current
// command vocabulary can set; the mask type leaves room for depth and
// stencil buffers.
const ClearColorBit ClearMask = 1 << 0

// Environment is the graphics stack the interpreter runs against. It covers
// capability queries, shader build primitives, drawing, pixel readback, and
// uniform assignment. Window and context creation are the caller's problem;
// an Environment is handed in already usable.
//
// Environments are not safe for concurrent use. One run owns the
// environment from Prepare to the end of RunCommands.
type Environment interface {
	// ExtensionSupported reports whether the named extension is available.
	ExtensionSupported(name string) bool

	// APIVersion returns the graphics API version as a float (e.g. 3.0).
	APIVersion() float64

	// ShadingLanguageVersion returns the shading-language version as a
	// float (e.g. 1.20).
	ShadingLanguageVersion() float64

	// CompileStage compiles one shader stage from source. The returned
	// handle stays valid until the environment is closed. A failed
	// compile returns an error carrying the platform diagnostic.
	CompileStage(kind StageKind, source string) (StageHandle, error)

	// LinkProgram links the given stages, in the order given, into a
	// program. Linking zero usable stages is an error.
	LinkProgram(stages []StageHandle) (ProgramHandle, error)

	// UseProgram makes the program current for subsequent draws.
	UseProgram(p ProgramHandle) error

	// SetClearColor sets the persisted clear color state.
	SetClearColor(c Color)

	// Clear clears the buffers selected by mask. A zero mask is a no-op.
	Clear(mask ClearMask) error

	// DrawRect draws an axis-aligned rectangle with corner (x, y) and
	// extent (w, h) in the currently installed projection.
	DrawRect(x, y, w, h float32) error

	// InstallOrthoProjection installs an orthographic projection mapping
	// (0,0)-(width,height) onto the viewport.
	InstallOrthoProjection(width, height int)

	// ReadPixel reads back the color at pixel (x, y), origin bottom-left.
	ReadPixel(x, y int) (Color, error)

	// UniformLocation resolves a uniform name against a linked program.
	// The second result is false if the name does not resolve.
	UniformLocation(p ProgramHandle, name string) (UniformLocation, bool)

	// SetUniformVec4 assigns four floats to a resolved uniform.
	SetUniformVec4(loc UniformLocation, v [4]float32) error

	// Viewport returns the render target size in pixels.
	Viewport() (width, height int)

	// Close releases environment resources. The environment must not be
	// used afterwards.
	Close() error
}

// colorsClose reports whether the first channels channels of two colors
// match within a per-channel tolerance. Probes compare three channels
// (probe rgb) or four (probe rgba).
func colorsClose(observed, expected Color, tolerance float32, channels int) bool {
	for i := 0; i < channels; i++ {
		d := observed[i] - expected[i]
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			return false
		}
	}
	return true
}
