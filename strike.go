package spritetext

import (
	"image"
	"image/color"
)

// StrikeFormat selects the backing pixel format of the strike.
type StrikeFormat int

const (
	// FormatAlpha8 stores one 8-bit coverage value per pixel. Color
	// backends expand it to white-with-alpha. This is the compact choice
	// for plain text labels.
	FormatAlpha8 StrikeFormat = iota

	// FormatRGBA4444 stores full color at 4 bits per channel. Use it when
	// labels carry colored text or backgrounds.
	FormatRGBA4444
)

// String returns the format name.
func (f StrikeFormat) String() string {
	switch f {
	case FormatAlpha8:
		return "Alpha8"
	case FormatRGBA4444:
		return "RGBA4444"
	default:
		return "Unknown"
	}
}

// BytesPerPixel returns the storage size of one pixel.
func (f StrikeFormat) BytesPerPixel() int {
	if f == FormatRGBA4444 {
		return 2
	}
	return 1
}

// Strike is the CPU-side pixel buffer labels are rasterized into before
// upload. It implements image.Image and draw.Image so any rasterizer that
// draws into a draw.Image (for example x/image's font.Drawer) can target
// it directly.
//
// A Strike exists only during the adding phase of a LabelMaker and is
// discarded after EndAdding uploads it.
type Strike struct {
	width  int
	height int
	format StrikeFormat
	data   []uint8
}

// NewStrike creates a cleared strike buffer.
func NewStrike(format StrikeFormat, width, height int) *Strike {
	return &Strike{
		width:  width,
		height: height,
		format: format,
		data:   make([]uint8, width*height*format.BytesPerPixel()),
	}
}

// Width returns the strike width in pixels.
func (s *Strike) Width() int { return s.width }

// Height returns the strike height in pixels.
func (s *Strike) Height() int { return s.height }

// Format returns the strike pixel format.
func (s *Strike) Format() StrikeFormat { return s.format }

// Bytes returns the raw pixel data in the strike's native format, rows
// top to bottom. The slice aliases the strike's storage.
func (s *Strike) Bytes() []uint8 { return s.data }

// Clear resets every pixel to transparent black.
func (s *Strike) Clear() {
	for i := range s.data {
		s.data[i] = 0
	}
}

// Set implements draw.Image.
func (s *Strike) Set(x, y int, c color.Color) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	switch s.format {
	case FormatAlpha8:
		a := color.AlphaModel.Convert(c).(color.Alpha)
		s.data[y*s.width+x] = a.A
	case FormatRGBA4444:
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		i := (y*s.width + x) * 2
		s.data[i] = n.R&0xf0 | n.G>>4
		s.data[i+1] = n.B&0xf0 | n.A>>4
	}
}

// At implements image.Image. For FormatRGBA4444 the 4-bit channels are
// expanded by replication (0xN -> 0xNN).
func (s *Strike) At(x, y int) color.Color {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		if s.format == FormatAlpha8 {
			return color.Alpha{}
		}
		return color.NRGBA{}
	}
	switch s.format {
	case FormatAlpha8:
		return color.Alpha{A: s.data[y*s.width+x]}
	default:
		i := (y*s.width + x) * 2
		return color.NRGBA{
			R: expand4(s.data[i] >> 4),
			G: expand4(s.data[i] & 0x0f),
			B: expand4(s.data[i+1] >> 4),
			A: expand4(s.data[i+1] & 0x0f),
		}
	}
}

// Bounds implements image.Image.
func (s *Strike) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// ColorModel implements image.Image.
func (s *Strike) ColorModel() color.Model {
	if s.format == FormatAlpha8 {
		return color.AlphaModel
	}
	return color.NRGBAModel
}

// ToImage converts the strike to a straight-alpha NRGBA image for backends
// that upload 8-bit RGBA. Alpha8 strikes expand to white with coverage as
// alpha, which is what a REPLACE texture environment plus src-alpha
// blending expects for text.
func (s *Strike) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	switch s.format {
	case FormatAlpha8:
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				a := s.data[y*s.width+x]
				i := img.PixOffset(x, y)
				img.Pix[i+0] = 0xff
				img.Pix[i+1] = 0xff
				img.Pix[i+2] = 0xff
				img.Pix[i+3] = a
			}
		}
	case FormatRGBA4444:
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				c := s.At(x, y).(color.NRGBA)
				i := img.PixOffset(x, y)
				img.Pix[i+0] = c.R
				img.Pix[i+1] = c.G
				img.Pix[i+2] = c.B
				img.Pix[i+3] = c.A
			}
		}
	}
	return img
}

// expand4 replicates a 4-bit channel into 8 bits.
func expand4(v uint8) uint8 {
	return v<<4 | v
}
