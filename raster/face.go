package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Face rasterizes text with one font at one size. It implements
// spritetext.TextPaint.
//
// A Face owns an opentype face, which is not safe for concurrent use;
// like the LabelMaker it feeds, use one Face per rendering goroutine.
type Face struct {
	font    *opentype.Font
	face    font.Face
	size    float64
	color   color.Color
	metrics font.Metrics
}

// faceConfig holds optional Face configuration.
type faceConfig struct {
	dpi     float64
	hinting font.Hinting
	color   color.Color
}

// FaceOption configures NewFace.
type FaceOption func(*faceConfig)

// WithColor sets the text color. The default is opaque white, which is
// what alpha-only strikes expect.
func WithColor(c color.Color) FaceOption {
	return func(cfg *faceConfig) { cfg.color = c }
}

// WithDPI sets the rendering DPI. The default is 72, so sizes are in
// pixels.
func WithDPI(dpi float64) FaceOption {
	return func(cfg *faceConfig) { cfg.dpi = dpi }
}

// WithHinting sets the glyph hinting mode. The default is full hinting,
// which keeps stems crisp at the small sizes labels are usually set in.
func WithHinting(h font.Hinting) FaceOption {
	return func(cfg *faceConfig) { cfg.hinting = h }
}

// NewFace parses font data (TTF or OTF) and creates a face at the given
// size in points.
func NewFace(data []byte, size float64, opts ...FaceOption) (*Face, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("raster: empty font data")
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("raster: parse font: %w", err)
	}
	return newFace(parsed, size, opts...)
}

// NewFaceFromFile loads a font file and creates a face at the given size.
func NewFaceFromFile(path string, size float64, opts ...FaceOption) (*Face, error) {
	// #nosec G304 -- font file path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: read font file: %w", err)
	}
	return NewFace(data, size, opts...)
}

func newFace(parsed *opentype.Font, size float64, opts ...FaceOption) (*Face, error) {
	cfg := faceConfig{
		dpi:     72,
		hinting: font.HintingFull,
		color:   color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     cfg.dpi,
		Hinting: cfg.hinting,
	})
	if err != nil {
		return nil, fmt.Errorf("raster: create face: %w", err)
	}

	return &Face{
		font:    parsed,
		face:    face,
		size:    size,
		color:   cfg.color,
		metrics: face.Metrics(),
	}, nil
}

// Size returns the face size in points.
func (f *Face) Size() float64 { return f.size }

// Close releases the face's rasterizer resources.
func (f *Face) Close() error {
	return f.face.Close()
}

// Ascent implements spritetext.TextPaint. It is the distance from the
// baseline to the top of the tallest glyph, in pixels, positive.
func (f *Face) Ascent() float64 {
	return fixedToFloat(f.metrics.Ascent)
}

// Descent implements spritetext.TextPaint. It is the distance from the
// baseline to the bottom of the lowest glyph, in pixels, positive.
func (f *Face) Descent() float64 {
	return fixedToFloat(f.metrics.Descent)
}

// Measure implements spritetext.TextPaint, returning the advance width of
// s in pixels.
func (f *Face) Measure(s string) float64 {
	return fixedToFloat(font.MeasureString(f.face, s))
}

// Render implements spritetext.TextPaint, drawing s into dst with the
// baseline origin at (x, y).
func (f *Face) Render(dst draw.Image, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(f.color),
		Face: f.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// floatToFixed converts a float64 to fixed.Int26_6.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
