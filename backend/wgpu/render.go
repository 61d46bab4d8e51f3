package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderscript"
)

// readbackTimeout bounds the fence wait after a submit.
const readbackTimeout = 5 * time.Second

// builtinWGSL renders solid white, standing in for the fixed-function
// pipeline when a script draws without linking a program.
const builtinWGSL = `
@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

func (e *Env) createBuiltinPipeline() error {
	module, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "builtin_white",
		Source: hal.ShaderSource{WGSL: builtinWGSL},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create builtin module: %w", err)
	}
	e.builtinShader = module

	layout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "builtin_layout",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create builtin layout: %w", err)
	}
	e.builtinLayout = layout

	pipeline, err := e.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "builtin_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
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
		return fmt.Errorf("wgpu: create builtin pipeline: %w", err)
	}
	e.builtinPipeline = pipeline
	return nil
}

// Clear submits a render pass that loads with LoadOpClear. A zero mask
// means no buffer bit has been armed yet and the call does nothing.
func (e *Env) Clear(mask shaderscript.ClearMask) error {
	if e.closed {
		return ErrClosed
	}
	if mask&shaderscript.ClearColorBit == 0 {
		return nil
	}
	c := e.clearColor
	return e.submitPass(gputypes.LoadOpClear, gputypes.Color{
		R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3]),
	}, nil, 0)
}

// DrawRect fills a rectangle with the active program, or the builtin white
// pipeline when no program is in use. Coordinates are NDC unless an ortho
// projection was installed, in which case they are window pixels.
func (e *Env) DrawRect(x, y, w, h float32) error {
	if e.closed {
		return ErrClosed
	}

	x0, y0 := x, y
	x1, y1 := x+w, y+h
	if e.ortho {
		// Pixel coordinates, origin bottom-left. NDC y points the
		// same way, so only scale and bias are needed.
		fw, fh := float32(e.width), float32(e.height)
		x0, y0 = x0/fw*2-1, y0/fh*2-1
		x1, y1 = x1/fw*2-1, y1/fh*2-1
	}

	verts := []float32{
		x0, y0, x1, y0, x1, y1,
		x0, y0, x1, y1, x0, y1,
	}
	buf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quad_verts",
		Size:  uint64(4 * len(verts)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create vertex buffer: %w", err)
	}
	defer e.device.DestroyBuffer(buf)
	e.queue.WriteBuffer(buf, 0, floatBytes(verts))

	return e.submitPass(gputypes.LoadOpLoad, gputypes.Color{}, buf, 6)
}

// submitPass encodes one render pass to the target texture and waits for
// it. vertexCount 0 clears without drawing.
func (e *Env) submitPass(load gputypes.LoadOp, clear gputypes.Color, verts hal.Buffer, vertexCount uint32) error {
	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "script_pass",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("script_pass"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "script_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       e.targetView,
				LoadOp:     load,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clear,
			},
		},
	})
	if vertexCount > 0 {
		pipeline := e.builtinPipeline
		var bindGroup hal.BindGroup
		if e.active != nil {
			pipeline = e.active.pipeline
			bindGroup = e.active.bindGroup
		}
		rp.SetPipeline(pipeline)
		if bindGroup != nil {
			rp.SetBindGroup(0, bindGroup, nil)
		}
		rp.SetVertexBuffer(0, verts, 0)
		rp.Draw(vertexCount, 1, 0, 0)
	}
	rp.End()

	return e.finishAndWait(encoder)
}

// ReadPixel copies the target texture to a staging buffer and returns one
// pixel. y is counted from the bottom of the window.
func (e *Env) ReadPixel(x, y int) (shaderscript.Color, error) {
	if e.closed {
		return shaderscript.Color{}, ErrClosed
	}
	if x < 0 || y < 0 || x >= e.width || y >= e.height {
		return shaderscript.Color{}, fmt.Errorf("wgpu: pixel (%d, %d) outside %dx%d window", x, y, e.width, e.height)
	}

	// Rows must be padded to the copy pitch alignment.
	bytesPerRow := alignUp(uint32(e.width*4), 256)
	size := uint64(bytesPerRow) * uint64(e.height)
	staging, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: gputypes.BufferUsageCopyDst | gputypes.BufferUsageMapRead,
	})
	if err != nil {
		return shaderscript.Color{}, fmt.Errorf("wgpu: create readback buffer: %w", err)
	}
	defer e.device.DestroyBuffer(staging)

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "readback",
	})
	if err != nil {
		return shaderscript.Color{}, fmt.Errorf("wgpu: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return shaderscript.Color{}, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{
		{
			Texture: e.targetTex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		},
	})
	encoder.CopyTextureToBuffer(e.targetTex, staging, []hal.BufferTextureCopy{
		{
			BufferLayout: hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: uint32(e.height),
			},
			TextureBase: hal.ImageCopyTexture{Texture: e.targetTex, MipLevel: 0},
			Size: hal.Extent3D{
				Width:              uint32(e.width),
				Height:             uint32(e.height),
				DepthOrArrayLayers: 1,
			},
		},
	})
	encoder.TransitionTextures([]hal.TextureBarrier{
		{
			Texture: e.targetTex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		},
	})
	if err := e.finishAndWait(encoder); err != nil {
		return shaderscript.Color{}, err
	}

	data := make([]byte, size)
	if err := e.queue.ReadBuffer(staging, 0, data); err != nil {
		return shaderscript.Color{}, fmt.Errorf("wgpu: read back target: %w", err)
	}

	// The texture's row 0 is the top of the window; the script's y
	// counts from the bottom. Pixels are BGRA.
	row := e.height - 1 - y
	off := row*int(bytesPerRow) + x*4
	return shaderscript.Color{
		float32(data[off+2]) / 255,
		float32(data[off+1]) / 255,
		float32(data[off+0]) / 255,
		float32(data[off+3]) / 255,
	}, nil
}

// finishAndWait ends the encoder, submits it, and blocks on the fence.
func (e *Env) finishAndWait(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)

	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	done, err := e.device.Wait(fence, 1, readbackTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for submit: %w", err)
	}
	if !done {
		return fmt.Errorf("wgpu: submit did not complete within %s", readbackTimeout)
	}
	return nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}
