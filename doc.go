// Package shaderscript interprets data-driven GPU conformance-test scripts.
//
// # Overview
//
// A test script is plain text divided into bracketed sections:
//
//	[require]
//	GL >= 3.0
//	GL_ARB_fragment_shader
//
//	[vertex shader]
//	... per-stage shader source ...
//
//	[fragment shader]
//	... per-stage shader source ...
//
//	[test]
//	clear color 1 0 0 0
//	clear
//	draw rect -1 -1 2 2
//	probe rgba 10 10 1 0 0 0
//
// The [require] section gates the run on graphics capabilities: extension
// presence (GL_name), extension absence (!GL_name), and API or shading
// language version comparisons (GL >= 3.0, GLSL == 1.20). An unmet
// requirement ends the run with a Skip verdict, never a Failure.
//
// Shader sections are buffered and compiled when the section ends. After all
// sections are processed the compiled stages are attached in a fixed order
// (vertex, geometry, fragment), linked into a single program, and made
// active. Build errors are fatal and surface the platform diagnostic
// verbatim.
//
// The [test] section is a command block executed line by line: clearing,
// rectangle draws, single-pixel probes, and vec4 uniform assignment. A
// failing probe marks the run as Failure but execution continues so every
// probe in the block is reported; all other errors stop the run immediately.
//
// # Quick Start
//
//	env, err := software.New(250, 250)
//	if err != nil { ... }
//	defer env.Close()
//
//	r := shaderscript.New(env, shaderscript.DefaultOptions())
//	if v := r.Prepare(scriptText); v.Status != shaderscript.StatusSuccess {
//		return v
//	}
//	return r.RunCommands()
//
// Every run produces exactly one Verdict: Success, Failure (implementation
// defect), or Skip (precondition not met). The distinction matters to
// automated suites: skips are excluded from pass/fail statistics.
//
// # Environments
//
// The interpreter talks to the graphics stack through the Environment
// interface. The backend/wgpu package implements it on gogpu/wgpu with WGSL
// stages compiled through gogpu/naga; backend/software is a pure-Go
// reference environment useful for suite development and CI machines
// without a GPU.
package shaderscript
