package importer

import (
	"math"

	"slideflow/internal/model"
)

// PhysicalRect is a shape transform in the source's physical units (EMU).
type PhysicalRect struct {
	X, Y, W, H int64
}

// PixelRect is a rectangle on the editor's fixed 960×540 logical canvas.
// Coordinates may be negative or exceed the canvas if the source shape lies
// outside the visible slide; they are intentionally not clamped.
type PixelRect struct {
	X, Y, W, H int
}

// Transformer converts physical-unit lengths into logical pixels for one
// presentation's canvas. Each axis is scaled independently; non-uniform
// source aspect ratios are accepted.
type Transformer struct {
	widthEMU  int64
	heightEMU int64
}

// NewTransformer builds a Transformer from the presentation metadata.
func NewTransformer(md Metadata) Transformer {
	return Transformer{widthEMU: md.CanvasWidthEMU, heightEMU: md.CanvasHeightEMU}
}

// PixelX converts a horizontal physical length to logical pixels.
func (t Transformer) PixelX(emu int64) int {
	return int(math.Round(float64(emu) / float64(t.widthEMU) * model.CanvasWidth))
}

// PixelY converts a vertical physical length to logical pixels.
func (t Transformer) PixelY(emu int64) int {
	return int(math.Round(float64(emu) / float64(t.heightEMU) * model.CanvasHeight))
}

// Rect converts a full transform block.
func (t Transformer) Rect(r PhysicalRect) PixelRect {
	return PixelRect{
		X: t.PixelX(r.X),
		Y: t.PixelY(r.Y),
		W: t.PixelX(r.W),
		H: t.PixelY(r.H),
	}
}
