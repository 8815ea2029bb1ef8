// Package spritetext packs rasterized text labels into a single texture
// atlas for fast sprite-style text rendering.
//
// # Overview
//
// Labels are drawn once into a CPU-side pixel buffer (the "strike") using a
// high quality font rasterizer, uploaded as one texture, and then drawn many
// times per frame as cheap textured quads. Because every label shares one
// texture, drawing N labels costs N quad draws with no texture rebinds.
//
// The trade-offs: the number of labels is limited by the strike size, and
// the whole strike must be rebuilt whenever any label's text changes.
//
// # Quick Start
//
//	maker, err := spritetext.New(spritetext.FormatAlpha8, 256, 256)
//	if err != nil {
//	    return err
//	}
//
//	maker.Initialize(ctx)
//
//	maker.BeginAdding(ctx)
//	fps, _ := maker.AddText(ctx, "60 fps", paint)
//	maker.EndAdding(ctx)
//
//	// Per frame:
//	maker.BeginDrawing(ctx, viewW, viewH)
//	maker.Draw(ctx, 10, 10, fps)
//	maker.EndDrawing(ctx)
//
//	// On teardown:
//	maker.Shutdown(ctx)
//
// # Lifecycle
//
// A LabelMaker is a strict state machine: NEW → INITIALIZED → ADDING →
// INITIALIZED → DRAWING → INITIALIZED → … → NEW. Calls made in the wrong
// state fail with a *StateError and mutate nothing. The adding phase owns a
// transient pixel buffer that is released as soon as EndAdding uploads it.
//
// # Collaborators
//
// The package renders through two narrow interfaces: GraphicsContext (the
// host graphics stack: texture allocation, blending, crop-rect quad draws)
// and TextPaint / Background (the rasterizers). The raster package provides
// font-backed paints; the render package provides a GPU context on the
// gogpu stack; SoftwareContext in this package is a pure-CPU context for
// tests and headless use.
//
// # Concurrency
//
// A LabelMaker must be driven from a single goroutine, matching the
// rendering thread that owns its GraphicsContext. Independent instances may
// be used concurrently.
package spritetext
