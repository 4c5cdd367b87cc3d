package model

import (
	"strings"
	"testing"
)

func TestGridPoolNextGeneration(t *testing.T) {
	pool := NewGridPool()
	g := mustGrid(t, 5, 5, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2})

	// dirty buffer of another size must be fully overwritten
	dirty := mustGrid(t, 2, 7)
	dirty.Set(0, 0, true)
	GridToPool(dirty, pool)

	next := pool.NextGeneration(g)
	if !next.Equal(g.NextGeneration()) {
		t.Fatal("pooled next generation differs from the allocated one")
	}
	GridToPool(g, pool)

	var nilPool *GridPool
	if !nilPool.NextGeneration(next).Equal(next.NextGeneration()) {
		t.Fatal("nil pool fallback differs")
	}
	GridToPool(next, nil)
}

func TestTerminalRenderer(t *testing.T) {
	var sb strings.Builder
	r := NewTerminalRenderer(&sb)
	g := mustGrid(t, 2, 2, [2]int{0, 1})
	if err := r.Display(g); err != nil {
		t.Fatal(err)
	}
	want := gridPosEmpty + gridPosBlock + "\n" + gridPosEmpty + gridPosEmpty + "\n"
	if sb.String() != want {
		t.Fatalf("rendered %q, want %q", sb.String(), want)
	}
}
