// Package grid buckets bodies into fixed-size square cells for neighbour queries.
package grid

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Item is anything the grid can bucket
type Item interface {
	ID() uint64
	Position() mgl64.Vec2
}

// Key packs a cell coordinate pair into one map key
type Key int64

// Grid is a uniform-cell spatial hash. Each item lives in exactly one cell.
type Grid[T Item] struct {
	cellSize   float64
	cells      map[Key]map[uint64]T
	where      map[uint64]Key // item id -> cell it was inserted into
	pruneEvery time.Duration
	lastPrune  time.Time
}

// New creates an empty grid. pruneEvery rate-limits Prune.
func New[T Item](cellSize float64, pruneEvery time.Duration) *Grid[T] {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = 1
	}
	return &Grid[T]{
		cellSize:   cellSize,
		cells:      make(map[Key]map[uint64]T),
		where:      make(map[uint64]Key),
		pruneEvery: pruneEvery,
	}
}

// CellSize returns the fixed cell edge length
func (g *Grid[T]) CellSize() float64 {
	return g.cellSize
}

// Cell returns the cell coordinates containing p
func (g *Grid[T]) Cell(p mgl64.Vec2) (int, int) {
	return cellCoord(p[0], g.cellSize), cellCoord(p[1], g.cellSize)
}

func cellCoord(v, size float64) int {
	c := math.Floor(v / size)
	// Keep non-finite or huge coordinates inside the packable range
	switch {
	case math.IsNaN(c):
		return 0
	case c > math.MaxInt32:
		return math.MaxInt32
	case c < math.MinInt32:
		return math.MinInt32
	}
	return int(c)
}

// KeyOf packs cell coordinates
func KeyOf(cx, cy int) Key {
	return Key(int64(cx)<<32 | int64(uint32(int32(cy))))
}

// Insert places the item in the cell of its current position.
// Inserting an id that is already present moves it.
func (g *Grid[T]) Insert(item T) {
	id := item.ID()
	if old, ok := g.where[id]; ok {
		g.detach(id, old)
	}
	k := KeyOf(g.Cell(item.Position()))
	cell, ok := g.cells[k]
	if !ok {
		cell = make(map[uint64]T, 4)
		g.cells[k] = cell
	}
	cell[id] = item
	g.where[id] = k
}

// Remove takes the item out of the grid. It returns false if it was not there.
func (g *Grid[T]) Remove(item T) bool {
	id := item.ID()
	k, ok := g.where[id]
	if !ok {
		return false
	}
	g.detach(id, k)
	delete(g.where, id)
	return true
}

// Move re-buckets an item whose position changed
func (g *Grid[T]) Move(item T) {
	id := item.ID()
	k := KeyOf(g.Cell(item.Position()))
	if old, ok := g.where[id]; ok && old == k {
		g.cells[k][id] = item
		return
	}
	g.Insert(item)
}

// detach leaves the emptied cell in place; Prune reclaims it
func (g *Grid[T]) detach(id uint64, k Key) {
	if cell, ok := g.cells[k]; ok {
		delete(cell, id)
	}
}

// Has reports whether the id is bucketed
func (g *Grid[T]) Has(id uint64) bool {
	_, ok := g.where[id]
	return ok
}

// Len returns the number of bucketed items
func (g *Grid[T]) Len() int {
	return len(g.where)
}

// Cells returns the number of allocated cells, empty ones included
func (g *Grid[T]) Cells() int {
	return len(g.cells)
}

// Clear drops every item and cell
func (g *Grid[T]) Clear() {
	g.cells = make(map[Key]map[uint64]T)
	g.where = make(map[uint64]Key)
}

// QueryNear returns every item whose position lies within radius of p,
// excluding the item with id exclude. Order is unspecified.
func (g *Grid[T]) QueryNear(p mgl64.Vec2, radius float64, exclude uint64) []T {
	if radius < 0 || math.IsNaN(radius) {
		return nil
	}
	r2 := radius * radius
	var out []T
	collect := func(cell map[uint64]T) {
		for id, item := range cell {
			if id == exclude {
				continue
			}
			d := item.Position().Sub(p)
			if d.Dot(d) <= r2 {
				out = append(out, item)
			}
		}
	}

	// A window wider than the allocated cells is cheaper to replace with a
	// scan of every cell.
	span := 2*math.Ceil(radius/g.cellSize) + 1
	if span*span > float64(len(g.cells)) {
		for _, cell := range g.cells {
			collect(cell)
		}
		return out
	}

	rings := int(span-1) / 2
	cx, cy := g.Cell(p)
	for dx := -rings; dx <= rings; dx++ {
		for dy := -rings; dy <= rings; dy++ {
			if cell, ok := g.cells[KeyOf(cx+dx, cy+dy)]; ok {
				collect(cell)
			}
		}
	}
	return out
}

// Prune deletes empty cells, at most once per pruneEvery.
// Returns how many cells were dropped.
func (g *Grid[T]) Prune(now time.Time) int {
	if !g.lastPrune.IsZero() && now.Sub(g.lastPrune) < g.pruneEvery {
		return 0
	}
	g.lastPrune = now
	n := 0
	for k, cell := range g.cells {
		if len(cell) == 0 {
			delete(g.cells, k)
			n++
		}
	}
	return n
}
