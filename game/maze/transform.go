package maze

import "math"

// Transform maps between world coordinates (x, z) and grid cells (x, y).
//
//	cell  = round((world + Origin) / CellSize)
//	world = cell*CellSize - Origin
type Transform struct {
	Origin   float64 // Offset added to world coordinates before scaling.
	CellSize float64 // World units per cell edge.
}

// DefaultTransform places a 15×15 grid of 4-unit cells with cell (0,0) at world (-30,-30).
var DefaultTransform = Transform{Origin: 30, CellSize: 4}

// ToCell returns the cell containing the world point (x, z).
// Halves round up, so the boundary between two cells belongs to the higher one.
func (t Transform) ToCell(x, z float64) CellPosition {
	return CellPosition{
		X: int(math.Floor((x+t.Origin)/t.CellSize + 0.5)),
		Y: int(math.Floor((z+t.Origin)/t.CellSize + 0.5)),
	}
}

// ToWorld returns the world (x, z) of the cell center.
func (t Transform) ToWorld(p CellPosition) (x, z float64) {
	return float64(p.X)*t.CellSize - t.Origin, float64(p.Y)*t.CellSize - t.Origin
}

// CellAt returns the grid cell under the world point (x, z).
// The boolean is false when the point falls outside the grid.
func (t Transform) CellAt(g *Grid, x, z float64) (Cell, bool) {
	p := t.ToCell(x, z)
	return g.At(p.X, p.Y)
}
