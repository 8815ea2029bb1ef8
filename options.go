package spritetext

// LabelOption configures one Add call. A label may carry text, a
// background, explicit minimum dimensions, or any combination; a label
// with neither text nor background is a blank box of the minimum size.
//
// Example:
//
//	id, err := maker.Add(ctx,
//	    spritetext.WithText("42 ms", paint),
//	    spritetext.WithBackground(bg),
//	    spritetext.WithMinSize(64, 0),
//	)
type LabelOption func(*labelConfig)

// labelConfig collects the per-label inputs to the packing algorithm.
type labelConfig struct {
	text       string
	paint      TextPaint
	background Background
	minWidth   int
	minHeight  int
}

// hasText reports whether the label renders text. Both the string and the
// paint are required, matching the two-part contract of TextPaint.
func (c *labelConfig) hasText() bool {
	return c.text != "" && c.paint != nil
}

// WithText adds text rendered with the given paint.
func WithText(s string, paint TextPaint) LabelOption {
	return func(c *labelConfig) {
		c.text = s
		c.paint = paint
	}
}

// WithBackground adds a background behind the label content. The
// background's padding and minimum size participate in layout.
func WithBackground(bg Background) LabelOption {
	return func(c *labelConfig) {
		c.background = bg
	}
}

// WithMinSize sets explicit minimum box dimensions in pixels. The final
// box is the componentwise maximum of the minimums and the content size.
func WithMinSize(width, height int) LabelOption {
	return func(c *labelConfig) {
		c.minWidth = width
		c.minHeight = height
	}
}
