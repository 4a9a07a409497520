package main

const (
	// Cell size must exceed the largest collision radius plus the
	// largest per-tick displacement (dash speed / tick rate), so a
	// point query over a cell and its neighbors cannot miss contact.
	SpatialCellSize = 80.0
	SpatialExtent   = 800.0 // grid spans [-extent/2, extent/2] on both axes
	SpatialCols     = 11    // ceil(800/80) + 1
	SpatialRows     = 11
)

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind byte // 'a'=actor, 'k'=power-up
	Idx  int  // slot index into the corresponding flat list
}

// SpatialGrid is a fixed-size grid for broad-phase collision queries,
// centered on the arena origin. It is cleared and rebuilt every tick;
// cells are never carried across ticks as a stale cache.
type SpatialGrid struct {
	cells [SpatialCols * SpatialRows][]EntityRef
}

// NewSpatialGrid returns an empty grid
func NewSpatialGrid() *SpatialGrid {
	return &SpatialGrid{}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func cellCoord(v float64) int {
	c := int((v + SpatialExtent/2) / SpatialCellSize)
	if c < 0 {
		c = 0
	} else if c >= SpatialCols {
		c = SpatialCols - 1
	}
	return c
}

// Insert adds an entity reference at the given position
func (g *SpatialGrid) Insert(x, y float64, ref EntityRef) {
	idx := cellCoord(y)*SpatialCols + cellCoord(x)
	g.cells[idx] = append(g.cells[idx], ref)
}

// InsertCircle adds an entity reference to all cells overlapping its bounding box
func (g *SpatialGrid) InsertCircle(x, y, radius float64, ref EntityRef) {
	minCX := cellCoord(x - radius)
	maxCX := cellCoord(x + radius)
	minCY := cellCoord(y - radius)
	maxCY := cellCoord(y + radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*SpatialCols + cx
			g.cells[idx] = append(g.cells[idx], ref)
		}
	}
}

// InsertSegment adds an entity reference to all cells overlapping the
// capsule swept from (x1,y1) to (x2,y2) with the given radius. The
// occupant of a cell must be findable by anyone whose path crossed it,
// even when the occupant itself moved several cells this tick.
func (g *SpatialGrid) InsertSegment(x1, y1, x2, y2, radius float64, ref EntityRef) {
	minX, maxX := x1, x2
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := y1, y2
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	minCX := cellCoord(minX - radius)
	maxCX := cellCoord(maxX + radius)
	minCY := cellCoord(minY - radius)
	maxCY := cellCoord(maxY + radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*SpatialCols + cx
			g.cells[idx] = append(g.cells[idx], ref)
		}
	}
}

// Query returns all entity refs in cells overlapping the given bounding box
func (g *SpatialGrid) Query(x, y, radius float64) []EntityRef {
	return g.QueryBuf(x, y, radius, nil)
}

// QueryBuf appends results to buf and returns the extended slice,
// avoiding per-call allocation on the hot path
func (g *SpatialGrid) QueryBuf(x, y, radius float64, buf []EntityRef) []EntityRef {
	minCX := cellCoord(x - radius)
	maxCX := cellCoord(x + radius)
	minCY := cellCoord(y - radius)
	maxCY := cellCoord(y + radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*SpatialCols + cx
			buf = append(buf, g.cells[idx]...)
		}
	}
	return buf
}

// QuerySegment returns refs in cells overlapping the capsule swept from
// (x1,y1) to (x2,y2) with the given radius. Dash steps can cross more
// than one cell per tick; querying only an endpoint would let a fast
// mover skip past an occupant in between.
func (g *SpatialGrid) QuerySegment(x1, y1, x2, y2, radius float64, buf []EntityRef) []EntityRef {
	minX, maxX := x1, x2
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := y1, y2
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	minCX := cellCoord(minX - radius)
	maxCX := cellCoord(maxX + radius)
	minCY := cellCoord(minY - radius)
	maxCY := cellCoord(maxY + radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*SpatialCols + cx
			buf = append(buf, g.cells[idx]...)
		}
	}
	return buf
}
