package model

import "sync"

// GridToPool returns a grid to the pool for reuse
func GridToPool(grid *Grid, pool *GridPool) {
	if pool == nil || grid == nil {
		return
	}

	pool.Put(grid)
}

// GridPool recycles next-generation buffers between steps
type GridPool struct {
	pool sync.Pool
}

func NewGridPool() *GridPool {
	return &GridPool{
		pool: sync.Pool{
			New: func() any {
				return &Grid{}
			},
		},
	}
}

// Get retrieves a cleared grid from the pool sized rows x cols
func (p *GridPool) Get(rows, cols int) *Grid {
	g := p.pool.Get().(*Grid)
	g.Reset(rows, cols)
	return g
}

// Put returns a grid to the pool. The caller must not keep any reference to it.
func (p *GridPool) Put(g *Grid) {
	g.Clear()
	p.pool.Put(g)
}

// NextGeneration computes the generation after g into a pooled buffer.
// With a nil pool it falls back to a fresh allocation.
func (p *GridPool) NextGeneration(g *Grid) *Grid {
	if p == nil {
		return g.NextGeneration()
	}
	next := p.Get(g.rows, g.cols)
	g.NextGenerationInto(next)
	return next
}
