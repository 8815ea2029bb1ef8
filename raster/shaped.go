package raster

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"
)

// ShapedFace is a Face whose Measure runs the text through HarfBuzz
// shaping. Kerning pairs, ligatures, and right-to-left runs measure the
// way they will actually set, which matters when a label box is sized
// tightly around its text. Rendering still goes through the embedded
// Face's rasterizer.
//
// Shaping is measurement-only: spritetext labels are single runs, not a
// layout engine.
//
// ShapedFace is not safe for concurrent use, matching Face.
type ShapedFace struct {
	*Face

	gtFont *gtfont.Font

	// shaperPool pools HarfbuzzShaper instances; they carry mutable
	// buffers and are not safe for concurrent use.
	shaperPool sync.Pool
}

// NewShapedFace parses font data and creates a shaped face at the given
// size in points.
func NewShapedFace(data []byte, size float64, opts ...FaceOption) (*ShapedFace, error) {
	base, err := NewFace(data, size, opts...)
	if err != nil {
		return nil, err
	}

	// ParseTTF returns a *Face embedding the read-only *Font; keep the
	// Font and create lightweight faces per Measure call.
	gtFace, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: parse font for shaping: %w", err)
	}

	return &ShapedFace{
		Face:   base,
		gtFont: gtFace.Font,
		shaperPool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
	}, nil
}

// Measure implements spritetext.TextPaint with HarfBuzz-shaped advances.
func (f *ShapedFace) Measure(s string) float64 {
	if s == "" {
		return 0
	}
	runes := []rune(s)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: detectDirection(s),
		Face:      gtfont.NewFace(f.gtFont),
		Size:      floatToFixed(f.Size()),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	shaper := f.shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := shaper.Shape(input)
	f.shaperPool.Put(shaper)

	var advance float64
	for _, g := range output.Glyphs {
		advance += fixedToFloat(g.Advance)
	}
	return advance
}

// detectDirection returns the direction of the string's first bidi run.
// Labels are single runs; mixed-direction text should be split by the
// caller before being added.
func detectDirection(s string) di.Direction {
	p := bidi.Paragraph{}
	if _, err := p.SetString(s, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return di.DirectionLTR
	}
	run := ordering.Run(0)
	if run.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript inspects the runes and returns the script of the first
// non-space character. A simple heuristic, adequate for single-run label
// text.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
