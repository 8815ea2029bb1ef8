package spritetext

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// SoftwareContext is a pure-CPU GraphicsContext rendering into an RGBA
// framebuffer. It implements the same crop-rect blit semantics a GPU
// context does, which makes it the reference implementation: tests and
// headless tools render through it and read the pixels back directly.
//
// View coordinates have their origin at the bottom-left, matching
// PushOrthoProjection; the framebuffer image is stored top-left first as
// usual for image.RGBA.
type SoftwareContext struct {
	framebuffer *image.RGBA

	textures map[TextureHandle]*image.NRGBA
	nextTex  TextureHandle
	bound    TextureHandle

	blend bool

	// Fixed-function matrix stand-ins: the ortho extent and the modelview
	// translation. depth tracks Push/Pop pairing for misuse detection.
	viewW, viewH float64
	tx, ty       float64
	depth        int
}

// NewSoftwareContext creates a software context with a width x height
// framebuffer cleared to transparent black.
func NewSoftwareContext(width, height int) *SoftwareContext {
	return &SoftwareContext{
		framebuffer: image.NewRGBA(image.Rect(0, 0, width, height)),
		textures:    make(map[TextureHandle]*image.NRGBA),
		nextTex:     1,
	}
}

// Image returns the framebuffer. The returned image shares memory with
// the context.
func (c *SoftwareContext) Image() *image.RGBA { return c.framebuffer }

// ClearFramebuffer fills the framebuffer with the given color.
func (c *SoftwareContext) ClearFramebuffer(col color.Color) {
	r, g, b, a := col.RGBA()
	px := [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
	for i := 0; i < len(c.framebuffer.Pix); i += 4 {
		copy(c.framebuffer.Pix[i:i+4], px[:])
	}
}

// SavePNG writes the framebuffer to a PNG file.
func (c *SoftwareContext) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, c.framebuffer)
}

// AllocateTexture implements GraphicsContext.
func (c *SoftwareContext) AllocateTexture() (TextureHandle, error) {
	h := c.nextTex
	c.nextTex++
	c.textures[h] = nil
	return h, nil
}

// DeleteTexture implements GraphicsContext.
func (c *SoftwareContext) DeleteTexture(h TextureHandle) error {
	if _, ok := c.textures[h]; !ok {
		return fmt.Errorf("spritetext: delete of unknown texture %d", h)
	}
	delete(c.textures, h)
	if c.bound == h {
		c.bound = 0
	}
	return nil
}

// BindTexture implements GraphicsContext.
func (c *SoftwareContext) BindTexture(h TextureHandle) { c.bound = h }

// SetFilterNearest implements GraphicsContext. The software blit is always
// nearest-neighbor, so this is a no-op.
func (c *SoftwareContext) SetFilterNearest() {}

// SetWrapClamp implements GraphicsContext. Out-of-range samples are
// skipped rather than wrapped, so this is a no-op.
func (c *SoftwareContext) SetWrapClamp() {}

// SetEnvReplace implements GraphicsContext. The software blit always
// replaces fragments with texels, so this is a no-op.
func (c *SoftwareContext) SetEnvReplace() {}

// UploadPixels implements GraphicsContext. The strike is expanded to
// 8-bit straight-alpha RGBA; Alpha8 strikes become white with coverage.
func (c *SoftwareContext) UploadPixels(h TextureHandle, strike *Strike) error {
	if _, ok := c.textures[h]; !ok {
		return fmt.Errorf("spritetext: upload to unknown texture %d", h)
	}
	c.textures[h] = strike.ToImage()
	Logger().Debug("software: strike uploaded",
		"texture", h,
		"size", fmt.Sprintf("%dx%d", strike.Width(), strike.Height()),
		"format", strike.Format().String())
	return nil
}

// PushOrthoProjection implements GraphicsContext.
func (c *SoftwareContext) PushOrthoProjection(width, height float64) {
	c.viewW = width
	c.viewH = height
	c.depth++
}

// LoadIdentityModelView implements GraphicsContext.
func (c *SoftwareContext) LoadIdentityModelView(tx, ty float64) {
	c.tx = tx
	c.ty = ty
}

// PopMatrices implements GraphicsContext.
func (c *SoftwareContext) PopMatrices() {
	if c.depth > 0 {
		c.depth--
	}
	c.tx = 0
	c.ty = 0
}

// EnableBlend implements GraphicsContext. Only the src-alpha over pair is
// supported; anything else falls back to it.
func (c *SoftwareContext) EnableBlend(src, dst BlendFactor) {
	_ = src
	_ = dst
	c.blend = true
}

// DisableBlend implements GraphicsContext.
func (c *SoftwareContext) DisableBlend() { c.blend = false }

// DrawTexturedQuad implements GraphicsContext. The crop rect follows the
// fixed-function blit convention: sampling starts at (U, V) and a negative
// Height walks the texture upward, so a label rasterized top-down with
// crop (u, v+h, w, -h) comes out upright in the bottom-left-origin view.
func (c *SoftwareContext) DrawTexturedQuad(crop CropRect, x, y float64, w, h int) {
	tex := c.textures[c.bound]
	if tex == nil || w <= 0 || h <= 0 {
		return
	}

	xi := int(x + c.tx)
	yi := int(y + c.ty)
	fb := c.framebuffer.Bounds()

	for j := 0; j < h; j++ {
		// Screen row j counts up from the quad's bottom edge.
		var texRow int
		if crop.Height < 0 {
			texRow = crop.V - 1 - j
		} else {
			texRow = crop.V + j
		}
		fy := fb.Max.Y - 1 - (yi + j)
		if fy < fb.Min.Y || fy >= fb.Max.Y {
			continue
		}
		if texRow < 0 || texRow >= tex.Bounds().Max.Y {
			continue
		}
		for i := 0; i < w; i++ {
			texCol := crop.U + i
			fx := xi + i
			if fx < fb.Min.X || fx >= fb.Max.X {
				continue
			}
			if texCol < 0 || texCol >= tex.Bounds().Max.X {
				continue
			}
			c.writePixel(fx, fy, tex.NRGBAAt(texCol, texRow))
		}
	}
}

// writePixel stores one texel, blending src-alpha over if enabled.
func (c *SoftwareContext) writePixel(x, y int, src color.NRGBA) {
	i := c.framebuffer.PixOffset(x, y)
	px := c.framebuffer.Pix[i : i+4 : i+4]

	if !c.blend {
		px[0] = mul255(src.R, src.A)
		px[1] = mul255(src.G, src.A)
		px[2] = mul255(src.B, src.A)
		px[3] = src.A
		return
	}

	sa := uint32(src.A)
	ia := 255 - sa
	px[0] = uint8((uint32(src.R)*sa + uint32(px[0])*ia) / 255)
	px[1] = uint8((uint32(src.G)*sa + uint32(px[1])*ia) / 255)
	px[2] = uint8((uint32(src.B)*sa + uint32(px[2])*ia) / 255)
	px[3] = uint8((sa*255 + uint32(px[3])*ia) / 255)
}

// mul255 multiplies two 8-bit values as fractions of 255.
func mul255(a, b uint8) uint8 {
	return uint8((uint32(a)*uint32(b) + 127) / 255)
}
