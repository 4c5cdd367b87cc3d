package model

import (
	"crypto/md5"
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-engine/rules"
)

var (
	// ErrInvalidDimensions is returned when a grid is requested with rows or cols <= 0
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	// ErrInvalidCoordinate is returned when a cell is addressed outside the grid
	ErrInvalidCoordinate = errors.New("invalid cell coordinate")
)

// FillMode selects how CreateGrid populates a new grid
type FillMode int

const (
	// Empty creates a grid with every cell dead
	Empty FillMode = iota
	// Random sets each cell alive independently with a fixed probability
	Random
)

func (m FillMode) String() string {
	switch m {
	case Empty:
		return "empty"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("FillMode(%d)", int(m))
	}
}

// Offset is a relative (row, col) position
type Offset struct {
	DRow, DCol int
}

var mooreOffsets = [8]Offset{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// NeighborOffsets returns the Moore neighborhood, every adjacent cell excluding (0,0).
// The array is returned by value so callers cannot alter the shared table.
func NeighborOffsets() [8]Offset {
	return mooreOffsets
}

// Grid represents the game board
type Grid struct {
	rows  int
	cols  int
	cells [][]bool
}

// NewGrid creates a new empty grid with the specified dimensions
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "[NewGrid] rows=%d cols=%d", rows, cols)
	}
	return newGrid(rows, cols), nil
}

func newGrid(rows, cols int) *Grid {
	cells := make([][]bool, rows)
	for i := range cells {
		cells[i] = make([]bool, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: cells,
	}
}

// CreateGrid builds a grid in the requested mode. In Random mode each cell is
// alive with the given probability, drawn from rng (or the global source when rng is nil).
func CreateGrid(rows, cols int, mode FillMode, probability float64, rng *rand.Rand) (*Grid, error) {
	g, err := NewGrid(rows, cols)
	if err != nil {
		return nil, errors.Wrapf(err, "[CreateGrid] mode=%s", mode)
	}
	switch mode {
	case Empty:
	case Random:
		g.Randomize(probability, rng)
	default:
		return nil, errors.Errorf("[CreateGrid] unknown fill mode %d", int(mode))
	}
	return g, nil
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns
func (g *Grid) Cols() int {
	return g.cols
}

// InBounds reports whether (row, col) addresses a cell of the grid
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Reset resizes the grid and clears every cell
func (g *Grid) Reset(rows, cols int) {
	g.rows = rows
	g.cols = cols

	// Resize cells if needed
	if len(g.cells) != rows {
		g.cells = make([][]bool, rows)
	}
	for i := range g.cells {
		if len(g.cells[i]) != cols {
			g.cells[i] = make([]bool, cols)
		} else {
			clear(g.cells[i])
		}
	}
}

// Clear kills all cells
func (g *Grid) Clear() {
	for y := range g.rows {
		clear(g.cells[y])
	}
}

// Set sets a cell to alive (true) or dead (false); out of range writes are ignored
func (g *Grid) Set(row, col int, alive bool) {
	if g.InBounds(row, col) {
		g.cells[row][col] = alive
	}
}

// Get returns the state of a cell; out of range cells read as dead
func (g *Grid) Get(row, col int) bool {
	if !g.InBounds(row, col) {
		return false
	}
	return g.cells[row][col]
}

// Clone returns an independent copy of the grid
func (g *Grid) Clone() *Grid {
	next := newGrid(g.rows, g.cols)
	for y := range g.rows {
		copy(next.cells[y], g.cells[y])
	}
	return next
}

// Cells returns a deep copy of the cell matrix, indexed [row][col]
func (g *Grid) Cells() [][]bool {
	return g.Clone().cells
}

// Equal reports whether both grids have the same dimensions and cell states
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for y := range g.rows {
		for x := range g.cols {
			if g.cells[y][x] != other.cells[y][x] {
				return false
			}
		}
	}
	return true
}

// Toggle returns a copy of the grid with the addressed cell inverted.
// The receiver is never modified.
func (g *Grid) Toggle(row, col int) (*Grid, error) {
	if !g.InBounds(row, col) {
		return nil, errors.Wrapf(ErrInvalidCoordinate, "[Toggle] (%d,%d) outside %dx%d grid", row, col, g.rows, g.cols)
	}
	next := g.Clone()
	next.cells[row][col] = !next.cells[row][col]
	return next, nil
}

// CountLiveNeighbors counts living cells in the Moore neighborhood of (row, col).
// Neighbors that fall outside the grid are skipped; edges do not wrap.
func (g *Grid) CountLiveNeighbors(row, col int) int {
	count := 0
	for _, off := range mooreOffsets {
		r, c := row+off.DRow, col+off.DCol
		if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
			continue
		}
		if g.cells[r][c] {
			count++
		}
	}
	return count
}

// NextGeneration returns the following generation as a new grid
func (g *Grid) NextGeneration() *Grid {
	next := newGrid(g.rows, g.cols)
	g.NextGenerationInto(next)
	return next
}

// NextGenerationInto writes the following generation into dst, resizing it to
// match. Every cell is computed from the receiver only, so dst must not alias it.
func (g *Grid) NextGenerationInto(dst *Grid) {
	if dst.rows != g.rows || dst.cols != g.cols {
		dst.Reset(g.rows, g.cols)
	}
	for y := range g.rows {
		for x := range g.cols {
			dst.cells[y][x] = rules.ApplyConwayRules(g.CountLiveNeighbors(y, x), g.cells[y][x])
		}
	}
}

// CountLivingCells returns the total number of living cells
func (g *Grid) CountLivingCells() (count int) {
	for y := range g.rows {
		for x := range g.cols {
			if g.cells[y][x] {
				count++
			}
		}
	}
	return
}

// Hash returns an MD5 digest of the dimensions and cell states
func (g *Grid) Hash() string {
	h := md5.New()
	fmt.Fprintf(h, "%dx%d:", g.rows, g.cols)
	for y := range g.rows {
		for x := range g.cols {
			if g.cells[y][x] {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Randomize sets every cell alive with the given probability
func (g *Grid) Randomize(probability float64, rng *rand.Rand) {
	float := rand.Float64
	if rng != nil {
		float = rng.Float64
	}
	for y := range g.rows {
		for x := range g.cols {
			g.cells[y][x] = float() < probability
		}
	}
}

// AddBlinker places a horizontal three-cell blinker starting at (row, col)
func (g *Grid) AddBlinker(row, col int) {
	g.Set(row, col, true)
	g.Set(row, col+1, true)
	g.Set(row, col+2, true)
}

// AddGlider places a glider with its top-left corner at (row, col)
func (g *Grid) AddGlider(row, col int) {
	pattern := [][]bool{
		{false, true, false},
		{false, false, true},
		{true, true, true},
	}

	for dy, line := range pattern {
		for dx, cell := range line {
			g.Set(row+dy, col+dx, cell)
		}
	}
}
