package main

const (
	SpatialCellSize = 4.0 // > 2x EnemyRepelRadius, so a one-cell-ring query covers it
	SpatialCols     = 21  // ceil(80/4) + 1, arena spans [-ArenaHalf, ArenaHalf] on X and Z
	SpatialRows     = 21
)

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind byte // 'p'=player, 'e'=enemy, 'k'=pickup
	Idx  int  // index into the caller's flat list
}

// SpatialGrid is a fixed-size XZ grid for broad-phase proximity queries.
// World coordinates are offset by ArenaHalf so the arena maps onto [0, 80).
type SpatialGrid struct {
	cells [SpatialCols * SpatialRows][]EntityRef
}

// Clear empties every cell while keeping the backing arrays for reuse
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// axisCell maps one world coordinate to a cell index clamped to [0, n)
func axisCell(v float64, n int) int {
	c := int((v + ArenaHalf) / SpatialCellSize)
	return min(max(c, 0), n-1)
}

// cellSpan returns the clamped cell index range covered by center +- radius
func cellSpan(center, radius float64, n int) (lo, hi int) {
	return axisCell(center-radius, n), axisCell(center+radius, n)
}

// Insert adds an entity reference at the given position
func (g *SpatialGrid) Insert(x, z float64, ref EntityRef) {
	idx := axisCell(z, SpatialRows)*SpatialCols + axisCell(x, SpatialCols)
	g.cells[idx] = append(g.cells[idx], ref)
}

// Query returns all entity refs in cells overlapping the given bounding box
func (g *SpatialGrid) Query(x, z, radius float64) []EntityRef {
	return g.QueryBuf(x, z, radius, nil)
}

// QueryBuf appends results to buf and returns the extended slice, avoiding
// per-call allocation on the hot path
func (g *SpatialGrid) QueryBuf(x, z, radius float64, buf []EntityRef) []EntityRef {
	loX, hiX := cellSpan(x, radius, SpatialCols)
	loZ, hiZ := cellSpan(z, radius, SpatialRows)
	for cz := loZ; cz <= hiZ; cz++ {
		row := cz * SpatialCols
		for cx := loX; cx <= hiX; cx++ {
			buf = append(buf, g.cells[row+cx]...)
		}
	}
	return buf
}
