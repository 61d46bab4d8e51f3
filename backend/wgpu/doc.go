// Package wgpu provides a GPU environment for the script interpreter on
// top of gogpu/wgpu's HAL. Shader sections are WGSL: each stage is
// validated and reflected with gogpu/naga when its section ends, and the
// link step builds a render pipeline from the vertex and fragment modules.
//
// Conventions imposed on script shaders:
//   - The vertex stage consumes one float32x2 attribute at @location(0);
//     draw rect supplies the quad through it.
//   - Uniforms live in bind group 0 at the binding the shader declares.
//     Only vec4 uniforms are assignable from scripts.
//   - Geometry stages do not exist in WGSL; compiling one fails with a
//     diagnostic, which surfaces as a run Failure.
//
// The environment owns its device unless it was created with
// NewWithProvider, in which case the externally provided device and queue
// are shared and never destroyed here.
package wgpu
