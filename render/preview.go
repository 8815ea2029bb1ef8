// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/spritetext"
)

// Preview errors.
var (
	// ErrNoTextureCreator is returned when the draw context's renderer
	// doesn't implement gpucontext.TextureCreator.
	ErrNoTextureCreator = errors.New("render: renderer must implement gpucontext.TextureCreator")

	// ErrUnknownTexture is returned when the previewed atlas handle has
	// no uploaded pixels.
	ErrUnknownTexture = errors.New("render: unknown or empty atlas texture")
)

// textureDestroyer is the interface for destroying textures.
// This matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// AtlasPreview draws a context's atlas texture through a
// gpucontext.TextureDrawer. Applications use it to inspect atlas packing
// in a live gogpu frame, or to composite the whole atlas as a sprite
// sheet overlay.
type AtlasPreview struct {
	ctx    *Context
	handle spritetext.TextureHandle

	texture    gpucontext.Texture
	oldTexture gpucontext.Texture
	uploaded   any // pixel mirror the current texture was built from
}

// NewAtlasPreview creates a preview of the given atlas texture.
func NewAtlasPreview(ctx *Context, handle spritetext.TextureHandle) *AtlasPreview {
	return &AtlasPreview{ctx: ctx, handle: handle}
}

// RenderTo draws the atlas at (x, y). The preview texture is recreated
// only when the atlas pixels changed since the last call.
func (p *AtlasPreview) RenderTo(dc gpucontext.TextureDrawer, x, y float32) error {
	p.ctx.mu.Lock()
	tex := p.ctx.textures[p.handle]
	p.ctx.mu.Unlock()
	if tex == nil || tex.pixels == nil {
		return ErrUnknownTexture
	}

	if p.texture == nil || p.uploaded != any(tex.pixels) {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoTextureCreator
		}

		bounds := tex.pixels.Bounds()
		// NewTextureFromRGBA waits for the GPU internally, so the old
		// texture's descriptor heap entries are free once it returns.
		newTex, err := creator.NewTextureFromRGBA(bounds.Dx(), bounds.Dy(), tex.pixels.Pix)
		if err != nil {
			return fmt.Errorf("render: NewTextureFromRGBA failed: %w", err)
		}

		if p.oldTexture != nil {
			if destroyer, ok := p.oldTexture.(textureDestroyer); ok {
				destroyer.Destroy()
			}
		}
		p.oldTexture = p.texture
		p.texture = newTex
		p.uploaded = any(tex.pixels)
	}

	return dc.DrawTexture(p.texture, x, y)
}

// Close releases the preview's GPU textures.
func (p *AtlasPreview) Close() {
	for _, t := range []gpucontext.Texture{p.texture, p.oldTexture} {
		if t != nil {
			if destroyer, ok := t.(textureDestroyer); ok {
				destroyer.Destroy()
			}
		}
	}
	p.texture = nil
	p.oldTexture = nil
	p.uploaded = nil
}
