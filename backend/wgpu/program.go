package wgpu

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderscript"
)

// uniformVec4Size is the byte size of one vec4<f32> uniform buffer.
const uniformVec4Size = 16

// stageSource is one validated shader stage: the WGSL text kept for module
// creation at link time, the entry point name reflected from the IR, and
// the uniform globals the stage declares.
type stageSource struct {
	kind       shaderscript.StageKind
	source     string
	entryPoint string
	uniforms   []uniformRef
}

// uniformRef is one reflected vec4 uniform: its shader name and declared
// bind point.
type uniformRef struct {
	name    string
	group   uint32
	binding uint32
	buffer  hal.Buffer // created at link time
}

// gpuProgram is one linked program: its pipeline, bind group, and uniform
// buffers. Uniform locations index into uniforms.
type gpuProgram struct {
	pipeline   hal.RenderPipeline
	layout     hal.PipelineLayout
	bindLayout hal.BindGroupLayout
	bindGroup  hal.BindGroup
	modules    []hal.ShaderModule
	uniforms   []uniformRef
}

func (p *gpuProgram) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
	}
	if p.bindGroup != nil {
		device.DestroyBindGroup(p.bindGroup)
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
	}
	for _, m := range p.modules {
		device.DestroyShaderModule(m)
	}
	for _, u := range p.uniforms {
		if u.buffer != nil {
			device.DestroyBuffer(u.buffer)
		}
	}
}

// CompileStage validates WGSL through naga and reflects the entry point and
// uniform bindings. The HAL shader module itself is created at link time;
// this step exists so a broken shader fails the run the moment its section
// ends, with naga's diagnostic.
func (e *Env) CompileStage(kind shaderscript.StageKind, source string) (shaderscript.StageHandle, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if kind == shaderscript.StageGeometry {
		return 0, errors.New("wgpu: geometry stages are not supported by WGSL")
	}
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("wgpu: empty %s shader source", kind)
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return 0, fmt.Errorf("wgpu: parse %s shader: %w", kind, err)
	}
	mod, err := naga.Lower(ast)
	if err != nil {
		return 0, fmt.Errorf("wgpu: validate %s shader: %w", kind, err)
	}

	entry, err := entryPointFor(mod, kind)
	if err != nil {
		return 0, err
	}

	st := &stageSource{kind: kind, source: source, entryPoint: entry}
	for _, gv := range mod.GlobalVariables {
		if gv.Space != ir.SpaceUniform || gv.Binding == nil {
			continue
		}
		st.uniforms = append(st.uniforms, uniformRef{
			name:    gv.Name,
			group:   gv.Binding.Group,
			binding: gv.Binding.Binding,
		})
	}

	e.nextStage++
	e.stages[e.nextStage] = st
	return e.nextStage, nil
}

// entryPointFor picks the entry point matching the stage kind.
func entryPointFor(mod *ir.Module, kind shaderscript.StageKind) (string, error) {
	want := ir.StageVertex
	if kind == shaderscript.StageFragment {
		want = ir.StageFragment
	}
	for _, ep := range mod.EntryPoints {
		if ep.Stage == want {
			return ep.Name, nil
		}
	}
	return "", fmt.Errorf("wgpu: %s shader has no %s entry point", kind, kind)
}

// LinkProgram builds a render pipeline from the compiled stages. Exactly
// one vertex and one fragment stage are required; WGSL has no multi-module
// linking, so attaching several stages of one kind cannot be expressed and
// fails with a diagnostic.
func (e *Env) LinkProgram(stages []shaderscript.StageHandle) (shaderscript.ProgramHandle, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if len(stages) == 0 {
		return 0, errors.New("wgpu: cannot link a program with no stages")
	}

	var vert, frag *stageSource
	for _, h := range stages {
		st, ok := e.stages[h]
		if !ok {
			return 0, fmt.Errorf("wgpu: unknown stage handle %d", h)
		}
		switch st.kind {
		case shaderscript.StageVertex:
			if vert != nil {
				return 0, errors.New("wgpu: multiple vertex stages are not supported")
			}
			vert = st
		case shaderscript.StageFragment:
			if frag != nil {
				return 0, errors.New("wgpu: multiple fragment stages are not supported")
			}
			frag = st
		}
	}
	if vert == nil || frag == nil {
		return 0, errors.New("wgpu: program requires both a vertex and a fragment stage")
	}

	p := &gpuProgram{}
	ok := false
	defer func() {
		if !ok {
			p.destroy(e.device)
		}
	}()

	vertModule, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "script_vertex",
		Source: hal.ShaderSource{WGSL: vert.source},
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create vertex module: %w", err)
	}
	p.modules = append(p.modules, vertModule)

	fragModule, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "script_fragment",
		Source: hal.ShaderSource{WGSL: frag.source},
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create fragment module: %w", err)
	}
	p.modules = append(p.modules, fragModule)

	// Merge uniform declarations from both stages. Scripts address
	// uniforms by name, so duplicate names across stages share a buffer.
	for _, u := range append(append([]uniformRef{}, vert.uniforms...), frag.uniforms...) {
		if u.group != 0 {
			return 0, fmt.Errorf("wgpu: uniform %q uses bind group %d, only group 0 is supported", u.name, u.group)
		}
		dup := false
		for _, have := range p.uniforms {
			if have.name == u.name {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "uniform_" + u.name,
			Size:  uniformVec4Size,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return 0, fmt.Errorf("wgpu: create uniform buffer %q: %w", u.name, err)
		}
		u.buffer = buf
		p.uniforms = append(p.uniforms, u)
	}

	if err := e.createProgramPipeline(p, vert.entryPoint, frag.entryPoint); err != nil {
		return 0, err
	}

	ok = true
	e.nextProgram++
	e.programs[e.nextProgram] = p
	shaderscript.Logger().Info("program linked", "uniforms", len(p.uniforms))
	return e.nextProgram, nil
}

// createProgramPipeline creates the bind group layout (one uniform buffer
// entry per reflected uniform), pipeline layout, render pipeline, and the
// program's bind group.
func (e *Env) createProgramPipeline(p *gpuProgram, vertEntry, fragEntry string) error {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(p.uniforms))
	for _, u := range p.uniforms {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    u.binding,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}

	var layouts []hal.BindGroupLayout
	if len(entries) > 0 {
		bindLayout, err := e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   "script_uniform_layout",
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create bind group layout: %w", err)
		}
		p.bindLayout = bindLayout
		layouts = []hal.BindGroupLayout{bindLayout}
	}

	layout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "script_pipe_layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	p.layout = layout

	pipeline, err := e.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "script_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.modules[0],
			EntryPoint: vertEntry,
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.modules[1],
			EntryPoint: fragEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	p.pipeline = pipeline

	if len(p.uniforms) > 0 {
		bgEntries := make([]gputypes.BindGroupEntry, 0, len(p.uniforms))
		for _, u := range p.uniforms {
			bgEntries = append(bgEntries, gputypes.BindGroupEntry{
				Binding: u.binding,
				Resource: gputypes.BufferBinding{
					Buffer: u.buffer.NativeHandle(),
					Offset: 0,
					Size:   uniformVec4Size,
				},
			})
		}
		bindGroup, err := e.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   "script_uniform_bind",
			Layout:  p.bindLayout,
			Entries: bgEntries,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create bind group: %w", err)
		}
		p.bindGroup = bindGroup
	}
	return nil
}

// quadVertexLayout is the single float32x2 position attribute draw rect
// feeds through @location(0).
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 8,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// floatBytes packs float32s little-endian, the layout WriteBuffer expects.
func floatBytes(vals []float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		bits := math.Float32bits(v)
		out[i*4+0] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}
