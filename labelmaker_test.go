package spritetext

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

// fakePaint is a TextPaint with fixed metrics and a fixed per-string
// advance, so packing geometry is exact.
type fakePaint struct {
	ascent  float64
	descent float64
	advance float64
}

func (p *fakePaint) Ascent() float64          { return p.ascent }
func (p *fakePaint) Descent() float64         { return p.descent }
func (p *fakePaint) Measure(s string) float64 { return p.advance }

func (p *fakePaint) Render(dst draw.Image, x, y int, s string) {
	// Mark the baseline origin so orientation tests can find it.
	dst.Set(x, y, color.Alpha{A: 0xff})
}

// fakeBackground is a Background with configurable padding and minimums
// that fills its box with opaque alpha.
type fakeBackground struct {
	padding   Insets
	minWidth  int
	minHeight int
}

func (b *fakeBackground) Padding() Insets { return b.padding }
func (b *fakeBackground) MinWidth() int   { return b.minWidth }
func (b *fakeBackground) MinHeight() int  { return b.minHeight }

func (b *fakeBackground) Render(dst draw.Image, rect image.Rectangle) {
	draw.Draw(dst, rect, image.NewUniform(color.Alpha{A: 0xff}), image.Point{}, draw.Src)
}

func newTestMaker(t *testing.T, w, h int) (*LabelMaker, *SoftwareContext) {
	t.Helper()
	m, err := New(FormatAlpha8, w, h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := NewSoftwareContext(w, h)
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return m, ctx
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		format StrikeFormat
		w, h   int
		field  string
	}{
		{"valid alpha", FormatAlpha8, 128, 64, ""},
		{"valid rgba", FormatRGBA4444, 256, 256, ""},
		{"bad format", StrikeFormat(99), 128, 64, "Format"},
		{"zero width", FormatAlpha8, 0, 64, "StrikeWidth"},
		{"non pow2 width", FormatAlpha8, 100, 64, "StrikeWidth"},
		{"negative height", FormatAlpha8, 128, -64, "StrikeHeight"},
		{"non pow2 height", FormatAlpha8, 128, 63, "StrikeHeight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.format, tt.w, tt.h)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if m.State() != StateNew {
					t.Errorf("expected StateNew, got %v", m.State())
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestLabelMaker_StateGuards(t *testing.T) {
	paint := &fakePaint{ascent: 10, descent: 2, advance: 8}

	t.Run("add before BeginAdding", func(t *testing.T) {
		m, ctx := newTestMaker(t, 128, 64)
		_, err := m.AddText(ctx, "x", paint)
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("expected StateError, got %v", err)
		}
		if stateErr.Op != "Add" || stateErr.Want != StateAdding || stateErr.State != StateInitialized {
			t.Errorf("unexpected StateError fields: %+v", stateErr)
		}
	})

	t.Run("draw while adding", func(t *testing.T) {
		m, ctx := newTestMaker(t, 128, 64)
		if err := m.BeginAdding(ctx); err != nil {
			t.Fatalf("BeginAdding: %v", err)
		}
		if err := m.BeginDrawing(ctx, 128, 64); err == nil {
			t.Fatal("expected BeginDrawing to fail in ADDING")
		}
		// The failed call must not have corrupted the state.
		if m.State() != StateAdding {
			t.Errorf("expected StateAdding after failed BeginDrawing, got %v", m.State())
		}
	})

	t.Run("end adding twice", func(t *testing.T) {
		m, ctx := newTestMaker(t, 128, 64)
		if err := m.BeginAdding(ctx); err != nil {
			t.Fatalf("BeginAdding: %v", err)
		}
		if err := m.EndAdding(ctx); err != nil {
			t.Fatalf("EndAdding: %v", err)
		}
		if err := m.EndAdding(ctx); err == nil {
			t.Fatal("expected second EndAdding to fail")
		}
	})

	t.Run("end drawing without begin", func(t *testing.T) {
		m, ctx := newTestMaker(t, 128, 64)
		if err := m.EndDrawing(ctx); err == nil {
			t.Fatal("expected EndDrawing to fail in INITIALIZED")
		}
	})
}

func TestLabelMaker_FullCycle(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	paint := &fakePaint{ascent: 10, descent: 2, advance: 8}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	id0, err := m.AddText(ctx, "a", paint)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	id1, err := m.AddText(ctx, "b", paint)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if id0 != 0 || id1 != 1 {
		t.Errorf("expected ids 0,1, got %d,%d", id0, id1)
	}
	if err := m.EndAdding(ctx); err != nil {
		t.Fatalf("EndAdding: %v", err)
	}

	if err := m.BeginDrawing(ctx, 128, 64); err != nil {
		t.Fatalf("BeginDrawing: %v", err)
	}
	if err := m.Draw(ctx, 0, 0, id0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := m.Draw(ctx, 20, 0, id0); err != nil {
		t.Fatalf("Draw (repeat): %v", err)
	}
	if err := m.EndDrawing(ctx); err != nil {
		t.Fatalf("EndDrawing: %v", err)
	}
	if m.State() != StateInitialized {
		t.Errorf("expected StateInitialized after cycle, got %v", m.State())
	}

	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if m.State() != StateNew {
		t.Errorf("expected StateNew after Shutdown, got %v", m.State())
	}
	// Reinitialize after a simulated context loss.
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("reinitialize: %v", err)
	}
}

func TestAdd_LabelGeometry(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	paint := &fakePaint{ascent: 10, descent: 2, advance: 8}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	id, err := m.AddText(ctx, "a", paint)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}

	w, err := m.Width(id)
	if err != nil || w != 8 {
		t.Errorf("Width = %d, %v; want 8", w, err)
	}
	h, err := m.Height(id)
	if err != nil || h != 12 {
		t.Errorf("Height = %d, %v; want 12", h, err)
	}
	b, err := m.Baseline(id)
	if err != nil || b != 10 {
		t.Errorf("Baseline = %d, %v; want 10", b, err)
	}

	// The crop rect flips the box: origin one row below it, negative height.
	crop := m.labels[id].crop
	want := CropRect{U: 0, V: 12, Width: 8, Height: -12}
	if crop != want {
		t.Errorf("crop = %+v, want %+v", crop, want)
	}
}

func TestAdd_ShelfWrap(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	wide := &fakePaint{ascent: 10, descent: 2, advance: 50}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := m.AddText(ctx, "w", wide); err != nil {
			t.Fatalf("AddText %d: %v", i, err)
		}
	}

	// 50+50 fit on the first shelf; the third wraps to v=12.
	if got := m.labels[1].crop.U; got != 50 {
		t.Errorf("label 1 at u=%d, want 50", got)
	}
	if got := m.labels[2].crop; got.U != 0 || got.V != 24 {
		t.Errorf("label 2 crop = %+v, want wrap to u=0, v=12+12", got)
	}
}

func TestAdd_TallerLabelGrowsShelf(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	short := &fakePaint{ascent: 6, descent: 2, advance: 60}
	tall := &fakePaint{ascent: 16, descent: 4, advance: 60}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	if _, err := m.AddText(ctx, "s", short); err != nil {
		t.Fatalf("AddText short: %v", err)
	}
	if _, err := m.AddText(ctx, "t", tall); err != nil {
		t.Fatalf("AddText tall: %v", err)
	}
	// Wrap: the next shelf starts below the tallest label on the first.
	if _, err := m.AddText(ctx, "s", short); err != nil {
		t.Fatalf("AddText wrapped: %v", err)
	}
	if got := m.labels[2].crop.V; got != 20+8 {
		t.Errorf("wrapped shelf at v=%d, want 20", got-8)
	}
}

func TestAdd_Capacity128x64(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	paint := &fakePaint{ascent: 10, descent: 2, advance: 8}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}

	// 8x12 labels: 16 per shelf, 5 shelves of 12 in 64 rows = 80 labels.
	for i := 0; i < 80; i++ {
		if _, err := m.AddText(ctx, "x", paint); err != nil {
			t.Fatalf("AddText %d: %v", i, err)
		}
	}
	_, err := m.AddText(ctx, "x", paint)
	if !errors.Is(err, ErrOutOfSpace) {
		t.Fatalf("expected ErrOutOfSpace on label 81, got %v", err)
	}
}

func TestAdd_OutOfSpaceIsAtomic(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	big := &fakePaint{ascent: 50, descent: 10, advance: 100}
	small := &fakePaint{ascent: 10, descent: 2, advance: 8}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	if _, err := m.AddText(ctx, "big", big); err != nil {
		t.Fatalf("AddText big: %v", err)
	}
	// A second 60-tall label cannot open a new shelf in 64 rows.
	if _, err := m.AddText(ctx, "big", big); !errors.Is(err, ErrOutOfSpace) {
		t.Fatalf("expected ErrOutOfSpace, got %v", err)
	}

	if m.LabelCount() != 1 {
		t.Fatalf("failed add changed label count: %d", m.LabelCount())
	}
	// The cursor is unchanged: a small label still packs beside the first.
	id, err := m.AddText(ctx, "s", small)
	if err != nil {
		t.Fatalf("AddText small: %v", err)
	}
	if got := m.labels[id].crop.U; got != 100 {
		t.Errorf("small label at u=%d, want 100", got)
	}
	if m.State() != StateAdding {
		t.Errorf("expected StateAdding after failed add, got %v", m.State())
	}
}

func TestAdd_WiderThanStrikeIsClamped(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	paint := &fakePaint{ascent: 10, descent: 2, advance: 500}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	id, err := m.AddText(ctx, "wide", paint)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if w, _ := m.Width(id); w != 128 {
		t.Errorf("Width = %d, want clamp to 128", w)
	}
}

func TestAdd_BackgroundAndMinSize(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	paint := &fakePaint{ascent: 10, descent: 2, advance: 8}
	bg := &fakeBackground{
		padding:  Insets{Left: 2, Top: 1, Right: 2, Bottom: 1},
		minWidth: 32,
	}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	id, err := m.Add(ctx, WithText("a", paint), WithBackground(bg))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Width: max(32, 8+4) = 32. Height: 12+2 = 14.
	if w, _ := m.Width(id); w != 32 {
		t.Errorf("Width = %d, want 32", w)
	}
	if h, _ := m.Height(id); h != 14 {
		t.Errorf("Height = %d, want 14", h)
	}

	t.Run("explicit min size wins", func(t *testing.T) {
		id, err := m.Add(ctx, WithText("a", paint), WithMinSize(64, 40))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if w, _ := m.Width(id); w != 64 {
			t.Errorf("Width = %d, want 64", w)
		}
		if h, _ := m.Height(id); h != 40 {
			t.Errorf("Height = %d, want 40", h)
		}
	})
}

func TestAdd_BackgroundOnly(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	bg := &fakeBackground{minWidth: 20, minHeight: 10}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	id, err := m.Add(ctx, WithBackground(bg))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if w, _ := m.Width(id); w != 20 {
		t.Errorf("Width = %d, want 20", w)
	}
	if b, _ := m.Baseline(id); b != 0 {
		t.Errorf("Baseline = %d, want 0 with no text", b)
	}
}

func TestBeginAdding_ResetsLabels(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	paint := &fakePaint{ascent: 10, descent: 2, advance: 8}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := m.AddText(ctx, "x", paint); err != nil {
			t.Fatalf("AddText: %v", err)
		}
	}
	if err := m.EndAdding(ctx); err != nil {
		t.Fatalf("EndAdding: %v", err)
	}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("second BeginAdding: %v", err)
	}
	if m.LabelCount() != 0 {
		t.Fatalf("expected label count 0 after BeginAdding, got %d", m.LabelCount())
	}
	id, err := m.AddText(ctx, "y", paint)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if id != 0 {
		t.Errorf("expected ids to restart at 0, got %d", id)
	}
	// The cursor reset too: the first label packs at the origin again.
	if got := m.labels[0].crop.U; got != 0 {
		t.Errorf("first label at u=%d, want 0", got)
	}
}

func TestQueries_UnknownID(t *testing.T) {
	m, ctx := newTestMaker(t, 128, 64)
	paint := &fakePaint{ascent: 10, descent: 2, advance: 8}

	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	if _, err := m.AddText(ctx, "x", paint); err != nil {
		t.Fatalf("AddText: %v", err)
	}

	for _, id := range []int{-1, 1, 99} {
		if _, err := m.Width(id); !errors.Is(err, ErrNoSuchLabel) {
			t.Errorf("Width(%d): expected ErrNoSuchLabel, got %v", id, err)
		}
	}
	if err := m.EndAdding(ctx); err != nil {
		t.Fatalf("EndAdding: %v", err)
	}
	if err := m.BeginDrawing(ctx, 128, 64); err != nil {
		t.Fatalf("BeginDrawing: %v", err)
	}
	if err := m.Draw(ctx, 0, 0, 5); !errors.Is(err, ErrNoSuchLabel) {
		t.Errorf("Draw: expected ErrNoSuchLabel, got %v", err)
	}
	// A failed draw leaves the drawing phase intact.
	if err := m.Draw(ctx, 0, 0, 0); err != nil {
		t.Errorf("Draw after failed draw: %v", err)
	}
}

// failingUploadContext fails UploadPixels to verify the strike buffer is
// dropped regardless.
type failingUploadContext struct {
	*SoftwareContext
}

func (c *failingUploadContext) UploadPixels(h TextureHandle, s *Strike) error {
	return errors.New("forced upload failure")
}

func TestEndAdding_DropsStrikeOnFailure(t *testing.T) {
	m, err := New(FormatAlpha8, 128, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := &failingUploadContext{NewSoftwareContext(128, 64)}
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := m.BeginAdding(ctx); err != nil {
		t.Fatalf("BeginAdding: %v", err)
	}
	if err := m.EndAdding(ctx); err == nil {
		t.Fatal("expected EndAdding to propagate the upload failure")
	}
	if m.strike != nil {
		t.Error("strike buffer retained after EndAdding failure")
	}
	if m.State() != StateInitialized {
		t.Errorf("expected StateInitialized, got %v", m.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNew, "NEW"},
		{StateInitialized, "INITIALIZED"},
		{StateAdding, "ADDING"},
		{StateDrawing, "DRAWING"},
		{State(42), "State(42)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
