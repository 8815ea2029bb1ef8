package raster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/spritetext"
)

// SolidBackground fills a label's box with one color. It implements
// spritetext.Background.
type SolidBackground struct {
	color     color.Color
	padding   spritetext.Insets
	minWidth  int
	minHeight int
}

// NewSolidBackground creates a solid background with the given fill color
// and content padding.
func NewSolidBackground(c color.Color, padding spritetext.Insets) *SolidBackground {
	return &SolidBackground{color: c, padding: padding}
}

// WithMinSize sets the background's minimum box dimensions and returns it.
func (b *SolidBackground) WithMinSize(width, height int) *SolidBackground {
	b.minWidth = width
	b.minHeight = height
	return b
}

// Padding implements spritetext.Background.
func (b *SolidBackground) Padding() spritetext.Insets { return b.padding }

// MinWidth implements spritetext.Background.
func (b *SolidBackground) MinWidth() int { return b.minWidth }

// MinHeight implements spritetext.Background.
func (b *SolidBackground) MinHeight() int { return b.minHeight }

// Render implements spritetext.Background.
func (b *SolidBackground) Render(dst draw.Image, rect image.Rectangle) {
	draw.Draw(dst, rect, image.NewUniform(b.color), image.Point{}, draw.Over)
}

// FrameBackground is a solid fill with a one-pixel border in a second
// color. It implements spritetext.Background.
type FrameBackground struct {
	SolidBackground
	border color.Color
}

// NewFrameBackground creates a framed background. The border is drawn
// inside the box, so padding should be at least 1 on every side to keep
// the content off the frame.
func NewFrameBackground(fill, border color.Color, padding spritetext.Insets) *FrameBackground {
	return &FrameBackground{
		SolidBackground: SolidBackground{color: fill, padding: padding},
		border:          border,
	}
}

// Render implements spritetext.Background.
func (b *FrameBackground) Render(dst draw.Image, rect image.Rectangle) {
	b.SolidBackground.Render(dst, rect)
	frame := image.NewUniform(b.border)
	// Top, bottom, left, right edges.
	draw.Draw(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1), frame, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y), frame, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y), frame, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y), frame, image.Point{}, draw.Over)
}
