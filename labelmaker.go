package spritetext

import (
	"fmt"
	"image"
	"math"
)

// State is a LabelMaker lifecycle state. The zero value is StateNew.
type State int

const (
	// StateNew: constructed, no GPU resources held.
	StateNew State = iota

	// StateInitialized: a texture object is allocated and configured.
	StateInitialized

	// StateAdding: between BeginAdding and EndAdding; the transient
	// strike buffer exists and labels are being packed.
	StateAdding

	// StateDrawing: between BeginDrawing and EndDrawing; blend and
	// matrix state is set up for quad blits.
	StateDrawing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateInitialized:
		return "INITIALIZED"
	case StateAdding:
		return "ADDING"
	case StateDrawing:
		return "DRAWING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// LabelMaker packs rasterized labels into one texture and draws them as
// crop-rect quad blits. See the package documentation for the lifecycle.
//
// A LabelMaker owns at most one texture object at a time, and the strike
// buffer only between BeginAdding and EndAdding.
//
// LabelMaker is not safe for concurrent use; drive it from the rendering
// thread that owns its GraphicsContext.
type LabelMaker struct {
	format       StrikeFormat
	strikeWidth  int
	strikeHeight int

	texture TextureHandle
	strike  *Strike

	// Shelf-packing cursor. cursorV advances only when a shelf wraps;
	// lineHeight is the tallest label on the current shelf.
	cursorU    int
	cursorV    int
	lineHeight int

	labels []Label
	state  State
}

// New creates a label maker backed by a strikeWidth x strikeHeight strike.
// For maximum compatibility with texture size limits, both dimensions must
// be powers of two. The strike width should be at least as wide as the
// widest label. No GPU resource is acquired until Initialize.
func New(format StrikeFormat, strikeWidth, strikeHeight int) (*LabelMaker, error) {
	if format != FormatAlpha8 && format != FormatRGBA4444 {
		return nil, &ConfigError{Field: "Format", Reason: "unknown strike format"}
	}
	if strikeWidth <= 0 || strikeWidth&(strikeWidth-1) != 0 {
		return nil, &ConfigError{Field: "StrikeWidth", Reason: "must be a positive power of two"}
	}
	if strikeHeight <= 0 || strikeHeight&(strikeHeight-1) != 0 {
		return nil, &ConfigError{Field: "StrikeHeight", Reason: "must be a positive power of two"}
	}
	return &LabelMaker{
		format:       format,
		strikeWidth:  strikeWidth,
		strikeHeight: strikeHeight,
		state:        StateNew,
	}, nil
}

// StrikeWidth returns the strike width chosen at construction.
func (m *LabelMaker) StrikeWidth() int { return m.strikeWidth }

// StrikeHeight returns the strike height chosen at construction.
func (m *LabelMaker) StrikeHeight() int { return m.strikeHeight }

// Format returns the strike format chosen at construction.
func (m *LabelMaker) Format() StrikeFormat { return m.format }

// State returns the current lifecycle state.
func (m *LabelMaker) State() State { return m.state }

// LabelCount returns the number of labels added in the current cycle.
func (m *LabelMaker) LabelCount() int { return len(m.labels) }

// checkState verifies the maker is in want and transitions it to next.
// Every lifecycle operation goes through here; it is the sole ordering
// safety net.
func (m *LabelMaker) checkState(op string, want, next State) error {
	if m.state != want {
		return &StateError{Op: op, State: m.state, Want: want}
	}
	m.state = next
	return nil
}

// Initialize acquires and configures the label texture. Call whenever the
// host surface has been (re)created. Initialize does not require a
// particular state: after a context loss the maker may be reinitialized
// directly.
func (m *LabelMaker) Initialize(ctx GraphicsContext) error {
	tex, err := ctx.AllocateTexture()
	if err != nil {
		return fmt.Errorf("spritetext: allocate label texture: %w", err)
	}
	m.texture = tex

	ctx.BindTexture(tex)
	// Labels are blitted 1:1, so nearest filtering is exact.
	ctx.SetFilterNearest()
	ctx.SetWrapClamp()
	ctx.SetEnvReplace()

	m.state = StateInitialized
	return nil
}

// Shutdown releases the label texture. Call when the host surface is
// destroyed. The maker returns to StateNew and may be reinitialized.
func (m *LabelMaker) Shutdown(ctx GraphicsContext) error {
	if m.state == StateNew {
		return nil
	}
	err := ctx.DeleteTexture(m.texture)
	m.texture = 0
	m.strike = nil
	m.state = StateNew
	if err != nil {
		return fmt.Errorf("spritetext: release label texture: %w", err)
	}
	return nil
}

// BeginAdding starts a new adding phase: existing labels are cleared, the
// packing cursor resets to the top-left shelf, and a fresh transparent
// strike buffer is allocated.
func (m *LabelMaker) BeginAdding(ctx GraphicsContext) error {
	if err := m.checkState("BeginAdding", StateInitialized, StateAdding); err != nil {
		return err
	}
	m.labels = m.labels[:0]
	m.cursorU = 0
	m.cursorV = 0
	m.lineHeight = 0
	m.strike = NewStrike(m.format, m.strikeWidth, m.strikeHeight)
	return nil
}

// AddText adds a plain text label. Equivalent to Add with WithText only.
func (m *LabelMaker) AddText(ctx GraphicsContext, s string, paint TextPaint) (int, error) {
	return m.Add(ctx, WithText(s, paint))
}

// Add packs one label into the strike and returns its id. Ids are the
// dense indices 0, 1, 2, … in add order and stay valid until the next
// BeginAdding.
//
// Layout: the content size is the measured text box (ascent+descent tall,
// advance wide, width clamped to the strike width) plus the background
// padding; the final box is the componentwise maximum of that and the
// explicit minimums, with the content centered in the slack. Boxes are
// shelf-packed left to right, wrapping to a new shelf when the current one
// is full.
//
// Add is all-or-nothing: on ErrOutOfSpace neither the cursor, the label
// list, nor the strike pixels have changed.
func (m *LabelMaker) Add(ctx GraphicsContext, opts ...LabelOption) (int, error) {
	if err := m.checkState("Add", StateAdding, StateAdding); err != nil {
		return 0, err
	}

	var cfg labelConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	minWidth := cfg.minWidth
	minHeight := cfg.minHeight
	var padding Insets
	if cfg.background != nil {
		padding = cfg.background.Padding()
		minWidth = max(minWidth, cfg.background.MinWidth())
		minHeight = max(minHeight, cfg.background.MinHeight())
	}

	var ascent, descent, textWidth int
	if cfg.hasText() {
		ascent = int(math.Ceil(cfg.paint.Ascent()))
		descent = int(math.Ceil(cfg.paint.Descent()))
		textWidth = min(m.strikeWidth, int(math.Ceil(cfg.paint.Measure(cfg.text))))
	}
	textHeight := ascent + descent

	padWidth := padding.Horizontal()
	padHeight := padding.Vertical()
	height := max(minHeight, textHeight+padHeight)
	width := max(minWidth, textWidth+padWidth)

	// Center the content in whatever slack the minimums opened up.
	centerOffsetWidth := (width - padWidth - textWidth) / 2
	centerOffsetHeight := (height - padHeight - textHeight) / 2

	// Stage the placement on locals; commit to the cursor only after the
	// overflow check has passed.
	u := m.cursorU
	v := m.cursorV
	lineHeight := m.lineHeight

	if width > m.strikeWidth {
		width = m.strikeWidth
	}

	// Wrap to the next shelf if the current one is out of room.
	if u+width > m.strikeWidth {
		u = 0
		v += lineHeight
		lineHeight = 0
	}
	lineHeight = max(lineHeight, height)
	if v+lineHeight > m.strikeHeight {
		return 0, fmt.Errorf("%w: %dx%d label at shelf v=%d overflows %dx%d strike",
			ErrOutOfSpace, width, height, v, m.strikeWidth, m.strikeHeight)
	}

	if cfg.background != nil {
		cfg.background.Render(m.strike, image.Rect(u, v, u+width, v+height))
	}
	if cfg.hasText() {
		cfg.paint.Render(m.strike,
			u+padding.Left+centerOffsetWidth,
			v+ascent+padding.Top+centerOffsetHeight,
			cfg.text)
	}

	m.cursorU = u + width
	m.cursorV = v
	m.lineHeight = lineHeight
	m.labels = append(m.labels, Label{
		width:    width,
		height:   height,
		baseline: ascent,
		// Rasterized top-left down, sampled bottom-left up: the negative
		// crop height flips the region to match.
		crop: CropRect{U: u, V: v + height, Width: width, Height: -height},
	})
	return len(m.labels) - 1, nil
}

// EndAdding uploads the strike to the label texture and releases the
// strike buffer. Must be called before drawing starts.
func (m *LabelMaker) EndAdding(ctx GraphicsContext) error {
	if err := m.checkState("EndAdding", StateAdding, StateInitialized); err != nil {
		return err
	}
	strike := m.strike
	m.strike = nil // the buffer is transient, drop it even if upload fails
	ctx.BindTexture(m.texture)
	if err := ctx.UploadPixels(m.texture, strike); err != nil {
		return fmt.Errorf("spritetext: upload strike: %w", err)
	}
	return nil
}

// Width returns the on-screen width in pixels of the given label.
func (m *LabelMaker) Width(id int) (int, error) {
	l, err := m.label(id)
	return l.width, err
}

// Height returns the on-screen height in pixels of the given label.
func (m *LabelMaker) Height(id int) (int, error) {
	l, err := m.label(id)
	return l.height, err
}

// Baseline returns the distance in pixels from the top of the label box
// to the text baseline.
func (m *LabelMaker) Baseline(id int) (int, error) {
	l, err := m.label(id)
	return l.baseline, err
}

// label looks up a label by id.
func (m *LabelMaker) label(id int) (Label, error) {
	if id < 0 || id >= len(m.labels) {
		return Label{}, fmt.Errorf("%w: id %d with %d labels", ErrNoSuchLabel, id, len(m.labels))
	}
	return m.labels[id], nil
}

// BeginDrawing sets up the context for rapid label blits: the label
// texture bound, src-alpha blending on, an orthographic projection over
// the view, and a 0.375 pixel translation for consistent rasterization of
// integer coordinates.
func (m *LabelMaker) BeginDrawing(ctx GraphicsContext, viewWidth, viewHeight float64) error {
	if err := m.checkState("BeginDrawing", StateInitialized, StateDrawing); err != nil {
		return err
	}
	ctx.BindTexture(m.texture)
	ctx.EnableBlend(BlendSrcAlpha, BlendOneMinusSrcAlpha)
	ctx.PushOrthoProjection(viewWidth, viewHeight)
	ctx.LoadIdentityModelView(0.375, 0.375)
	return nil
}

// Draw blits one label with its bottom-left corner at (x, y), in view
// coordinates with the origin at the bottom-left. Labels may be drawn any
// number of times and in any order between BeginDrawing and EndDrawing.
func (m *LabelMaker) Draw(ctx GraphicsContext, x, y float64, id int) error {
	if err := m.checkState("Draw", StateDrawing, StateDrawing); err != nil {
		return err
	}
	l, err := m.label(id)
	if err != nil {
		return err
	}
	ctx.DrawTexturedQuad(l.crop, x, y, l.width, l.height)
	return nil
}

// EndDrawing restores the context state changed by BeginDrawing.
func (m *LabelMaker) EndDrawing(ctx GraphicsContext) error {
	if err := m.checkState("EndDrawing", StateDrawing, StateInitialized); err != nil {
		return err
	}
	ctx.DisableBlend()
	ctx.PopMatrices()
	return nil
}
