// Package bunraku is a runtime for rigged 2D character puppets.
//
// A puppet is a tree of textured parts whose pose and shape are driven by
// named parameters, optional secondary pendulum motion, and a deterministic
// compositing order. Each frame the runtime interpolates parameter bindings,
// composes per-vertex deformation, propagates transforms, and resolves draw
// order, producing world-space vertex data for a rendering backend.
//
// # Quick start
//
// A puppet is constructed once, fully populated, by a loader (see the inp
// subpackage for the .inp container format). After that, the only mutable
// state is parameter values and the physics solver:
//
//	puppet, err := inp.LoadFile("model.inp")
//	// ...
//	puppet.SetParameter("Blink", 0.5)
//	frame := puppet.Update(1.0 / 60)
//	// hand frame to a renderer (see the render subpackage)
//
// # Evaluation order
//
// Update is single-threaded and strictly sequential: parameter state →
// binding interpolation → physics tick → deformation composition → transform
// propagation → draw order. The physics solver is one frame behind by
// design: the displacement it computes during a tick is consumed by the
// NEXT frame's deformation pass. Reordering the pipeline breaks that lag
// and with it frame-to-frame determinism.
//
// # Output semantics
//
// The FrameResult returned by Update is a value: its buffers are freshly
// allocated each frame and never alias puppet state, so a renderer running
// elsewhere may retain a frame past the next Update call.
package bunraku
