// Package raster provides font-backed implementations of the spritetext
// rasterization interfaces.
//
// Face is a TextPaint on x/image's opentype rasterizer: parse a TTF/OTF
// once, create faces at the sizes you need, and hand them to
// LabelMaker.Add. ShapedFace wraps a Face with HarfBuzz measurement via
// go-text/typesetting for text that needs kerning, ligatures, or
// right-to-left handling. SolidBackground and FrameBackground are simple
// Background implementations for boxed labels.
//
// All types here are passive data sources: they measure and draw pixels
// and never call back into the LabelMaker using them.
package raster
