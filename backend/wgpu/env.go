package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderscript"
)

// Env implements shaderscript.Environment on gogpu/wgpu. It renders into a
// persistent offscreen texture and reads pixels back through a staging
// buffer.
//
// Env is not safe for concurrent use; one run owns it at a time.
type Env struct {
	width, height int

	instance       hal.Instance
	device         hal.Device
	queue          hal.Queue
	externalDevice bool

	// Render target: single-sample BGRA texture, copyable for readback.
	targetTex  hal.Texture
	targetView hal.TextureView

	// Built-in pipeline used when a script links no program. WebGPU has
	// no fixed-function path, so this stands in for it: a pass-through
	// vertex stage and a constant white fragment stage.
	builtinShader   hal.ShaderModule
	builtinLayout   hal.PipelineLayout
	builtinPipeline hal.RenderPipeline

	clearColor shaderscript.Color
	ortho      bool

	stages   map[shaderscript.StageHandle]*stageSource
	programs map[shaderscript.ProgramHandle]*gpuProgram
	active   *gpuProgram

	extensions  map[string]bool
	apiVersion  float64
	glslVersion float64

	nextStage   shaderscript.StageHandle
	nextProgram shaderscript.ProgramHandle
	closed      bool
}

// compile-time interface check
var _ shaderscript.Environment = (*Env)(nil)

// New creates a GPU environment with its own device and an offscreen render
// target of the given size.
func New(width, height int) (*Env, error) {
	e, err := newEnv(width, height)
	if err != nil {
		return nil, err
	}
	if err := e.initDevice(); err != nil {
		return nil, err
	}
	if err := e.initResources(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func newEnv(width, height int) (*Env, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Env{
		width:       width,
		height:      height,
		stages:      make(map[shaderscript.StageHandle]*stageSource),
		programs:    make(map[shaderscript.ProgramHandle]*gpuProgram),
		extensions:  make(map[string]bool),
		apiVersion:  4.6,
		glslVersion: 4.6,
	}, nil
}

// initResources creates the render target and the built-in pipeline.
func (e *Env) initResources() error {
	tex, err := e.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "shaderscript_target",
		Size:          hal.Extent3D{Width: uint32(e.width), Height: uint32(e.height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create render target: %w", err)
	}
	e.targetTex = tex

	view, err := e.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "shaderscript_target_view",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create render target view: %w", err)
	}
	e.targetView = view

	return e.createBuiltinPipeline()
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
func (e *Env) ExtensionSupported(name string) bool { return e.extensions[name] }

// APIVersion returns the configured API version.
func (e *Env) APIVersion() float64 { return e.apiVersion }

// ShadingLanguageVersion returns the configured shading-language version.
func (e *Env) ShadingLanguageVersion() float64 { return e.glslVersion }

// Viewport returns the render target size.
func (e *Env) Viewport() (int, int) { return e.width, e.height }

// SetClearColor sets the persisted clear color state.
func (e *Env) SetClearColor(c shaderscript.Color) { e.clearColor = c }

// InstallOrthoProjection switches rectangle coordinates to pixels. The
// conversion to normalized device coordinates happens on the CPU when the
// quad is built, so script shaders see final clip-space positions either way.
func (e *Env) InstallOrthoProjection(_, _ int) { e.ortho = true }

// UseProgram makes a linked program current for subsequent draws.
func (e *Env) UseProgram(h shaderscript.ProgramHandle) error {
	p, ok := e.programs[h]
	if !ok {
		return fmt.Errorf("wgpu: unknown program handle %d", h)
	}
	e.active = p
	return nil
}

// UniformLocation resolves a uniform name against a linked program.
func (e *Env) UniformLocation(h shaderscript.ProgramHandle, name string) (shaderscript.UniformLocation, bool) {
	p, ok := e.programs[h]
	if !ok {
		return 0, false
	}
	for i, u := range p.uniforms {
		if u.name == name {
			return shaderscript.UniformLocation(i), true
		}
	}
	return 0, false
}

// SetUniformVec4 uploads four floats into the uniform's GPU buffer.
func (e *Env) SetUniformVec4(loc shaderscript.UniformLocation, v [4]float32) error {
	if e.active == nil {
		return fmt.Errorf("wgpu: no active program")
	}
	if int(loc) < 0 || int(loc) >= len(e.active.uniforms) {
		return fmt.Errorf("wgpu: uniform location %d out of range", loc)
	}
	e.queue.WriteBuffer(e.active.uniforms[loc].buffer, 0, floatBytes(v[:]))
	return nil
}

// Close destroys programs, pipelines, the render target, and the device
// unless it is externally owned.
func (e *Env) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if e.device != nil {
		for _, p := range e.programs {
			p.destroy(e.device)
		}
		if e.builtinPipeline != nil {
			e.device.DestroyRenderPipeline(e.builtinPipeline)
		}
		if e.builtinLayout != nil {
			e.device.DestroyPipelineLayout(e.builtinLayout)
		}
		if e.builtinShader != nil {
			e.device.DestroyShaderModule(e.builtinShader)
		}
		if e.targetView != nil {
			e.device.DestroyTextureView(e.targetView)
		}
		if e.targetTex != nil {
			e.device.DestroyTexture(e.targetTex)
		}
	}
	e.programs = nil
	e.stages = nil
	e.active = nil

	if !e.externalDevice {
		if e.device != nil {
			e.device.Destroy()
		}
		if e.instance != nil {
			e.instance.Destroy()
		}
	}
	e.device = nil
	e.queue = nil
	e.instance = nil
	return nil
}
