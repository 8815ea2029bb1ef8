package spritetext

// CropRect describes the texture sub-region a label occupies, in the
// crop-rectangle convention of fixed-function texture blits: U, V is the
// sampling origin and a negative Height flips the region vertically.
//
// Labels are rasterized with a top-left origin but sampled through a
// bottom-left-origin texture, so the stored rect is
// (u, v+height, width, -height).
type CropRect struct {
	U      int
	V      int
	Width  int
	Height int
}

// Label records the placement of one packed label. Labels are immutable
// once created and are referenced by the integer id returned from Add.
type Label struct {
	width    int
	height   int
	baseline int
	crop     CropRect
}

// Width returns the on-screen box width in pixels, padding included.
func (l Label) Width() int { return l.width }

// Height returns the on-screen box height in pixels, padding included.
func (l Label) Height() int { return l.height }

// Baseline returns the distance in pixels from the top of the label box
// to the text baseline (the ascent used when the label was added).
func (l Label) Baseline() int { return l.baseline }

// Crop returns the label's texture crop rectangle.
func (l Label) Crop() CropRect { return l.crop }
