package spritetext

import (
	"image"
	"image/draw"
)

// TextureHandle identifies a texture object owned by a GraphicsContext.
// Zero is never a valid handle.
type TextureHandle uint32

// BlendFactor names the blend factors a LabelMaker asks its context for.
// Only the src-alpha over pair is used by this package; the enum exists so
// contexts can be reused by other sprite-style drawing code.
type BlendFactor int

const (
	BlendSrcAlpha BlendFactor = iota
	BlendOneMinusSrcAlpha
)

// GraphicsContext is the host graphics stack a LabelMaker renders through.
// It models the small slice of a fixed-function pipeline the label workflow
// needs: one texture, replace texturing, alpha blending, an orthographic
// projection with a bottom-left origin, and crop-rectangle quad blits.
//
// Implementations: SoftwareContext (this package, CPU framebuffer) and
// render.Context (GPU, gogpu stack).
//
// A GraphicsContext is assumed to be bound to a single rendering thread;
// none of its methods need to be safe for concurrent use.
type GraphicsContext interface {
	// AllocateTexture creates a new texture object.
	AllocateTexture() (TextureHandle, error)

	// DeleteTexture releases a texture object.
	DeleteTexture(TextureHandle) error

	// BindTexture makes the texture current for upload and drawing.
	BindTexture(TextureHandle)

	// SetFilterNearest configures nearest-neighbor min/mag filtering on
	// the bound texture. Labels are drawn 1:1, so nearest is exact and
	// cheap.
	SetFilterNearest()

	// SetWrapClamp configures clamp-to-edge wrapping on both axes of the
	// bound texture.
	SetWrapClamp()

	// SetEnvReplace configures the texture environment so sampled texels
	// replace the fragment color.
	SetEnvReplace()

	// UploadPixels uploads the strike into the given texture.
	UploadPixels(TextureHandle, *Strike) error

	// PushOrthoProjection saves the projection matrix and loads an
	// orthographic projection mapping (0,0)-(width,height) with the
	// origin at the bottom-left.
	PushOrthoProjection(width, height float64)

	// LoadIdentityModelView saves the modelview matrix and loads an
	// identity translated by (tx, ty).
	LoadIdentityModelView(tx, ty float64)

	// PopMatrices restores the projection and modelview matrices saved
	// by PushOrthoProjection and LoadIdentityModelView.
	PopMatrices()

	// EnableBlend enables blending with the given factors.
	EnableBlend(src, dst BlendFactor)

	// DisableBlend disables blending.
	DisableBlend()

	// DrawTexturedQuad draws a w x h quad with its bottom-left corner at
	// (x, y) in view coordinates, textured with the crop region of the
	// bound texture. x and y are truncated to integers by the blit.
	DrawTexturedQuad(crop CropRect, x, y float64, w, h int)
}

// TextPaint measures and rasterizes text. It is a passive data source: a
// paint must never call back into the LabelMaker that is using it.
//
// Ascent and Descent are both positive distances from the baseline, the
// same convention as x/image/font.Metrics.
type TextPaint interface {
	// Ascent returns the distance from the baseline to the top of the
	// tallest glyph, in pixels.
	Ascent() float64

	// Descent returns the distance from the baseline to the bottom of
	// the lowest glyph, in pixels.
	Descent() float64

	// Measure returns the advance width of s in pixels.
	Measure(s string) float64

	// Render draws s into dst with the baseline origin at (x, y).
	Render(dst draw.Image, x, y int, s string)
}

// Insets is padding around a label's content, in pixels.
type Insets struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Horizontal returns Left + Right.
func (in Insets) Horizontal() int { return in.Left + in.Right }

// Vertical returns Top + Bottom.
func (in Insets) Vertical() int { return in.Top + in.Bottom }

// Background rasterizes a label's backing rectangle and contributes
// padding and minimum dimensions to its layout.
type Background interface {
	// Padding returns the insets reserved around the label content.
	Padding() Insets

	// MinWidth returns the background's minimum width in pixels.
	MinWidth() int

	// MinHeight returns the background's minimum height in pixels.
	MinHeight() int

	// Render draws the background covering rect in dst.
	Render(dst draw.Image, rect image.Rectangle)
}
