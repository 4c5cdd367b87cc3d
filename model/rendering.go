package model

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

const (
	gridPosBlock = "██"
	gridPosEmpty = "  "

	clearCmd = "clear"
)

// TerminalRenderer draws grids as text blocks
type TerminalRenderer struct {
	out io.Writer
}

// NewTerminalRenderer returns a renderer writing to out, or stdout when out is nil
func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalRenderer{out: out}
}

// Render returns the grid as text, one line per row
func (r *TerminalRenderer) Render(g *Grid) string {
	var sb strings.Builder
	sb.Grow(g.rows * (g.cols*len(gridPosBlock) + 1))
	for y := range g.rows {
		for x := range g.cols {
			if g.cells[y][x] {
				sb.WriteString(gridPosBlock)
			} else {
				sb.WriteString(gridPosEmpty)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Display writes the grid to the renderer's output
func (r *TerminalRenderer) Display(g *Grid) error {
	if _, err := io.WriteString(r.out, r.Render(g)); err != nil {
		return errors.Wrap(err, "[Display] failed to write grid")
	}
	return nil
}

// Clear clears the terminal screen
func (r *TerminalRenderer) Clear() error {
	cmd := exec.Command(clearCmd)
	cmd.Stdout = r.out
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "[Clear] failed to clear terminal")
	}
	return nil
}
