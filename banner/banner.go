// Package banner draws the project banner: a field of random dots sized and
// colored by a third random coordinate. It renders to the terminal or to an
// SVG fragment.
package banner

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// DefaultDots is the number of dots in the banner.
	DefaultDots = 512
	// Width is the x extent of the field; y spans [0, 1).
	Width = 3.0

	minSize = 5.0
	maxSize = 10.0
)

// Size classes, from smallest to largest.
const (
	Smol   = "smol dot"
	OkIsh  = "ok-ish dot"
	Medium = "a dot"
	Big    = "biiig dot"
)

// Classes lists the size classes in ascending order.
var Classes = []string{Smol, OkIsh, Medium, Big}

// Dot is one banner marker. Z in [0, 1) drives both its class and its size.
type Dot struct {
	X, Y, Z float64
}

// Label is the size class of the dot.
func (d Dot) Label() string { return Label(d.Z) }

// Size is the marker diameter, (z+1)·5.
func (d Dot) Size() float64 { return (d.Z + 1) * 5 }

// Label buckets z into quarters.
func Label(z float64) string {
	switch {
	case z < 0.25:
		return Smol
	case z < 0.5:
		return OkIsh
	case z < 0.75:
		return Medium
	default:
		return Big
	}
}

// Generate draws n dots with x in [0, 3) and y, z in [0, 1).
func Generate(n int, seed int64) []Dot {
	rng := rand.New(rand.NewSource(seed))
	dots := make([]Dot, n)
	for i := range dots {
		dots[i] = Dot{X: Width * rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
	}
	return dots
}

// Count tallies dots per size class, in Classes order.
func Count(dots []Dot) []int {
	counts := make([]int, len(Classes))
	for _, dot := range dots {
		for i, class := range Classes {
			if dot.Label() == class {
				counts[i]++
			}
		}
	}
	return counts
}

type rgb struct{ r, g, b float64 }

// colorscale runs light blue, purple, pink over the size range.
var colorscale = []struct {
	at    float64
	color rgb
}{
	{0, rgb{78, 165, 183}},
	{0.5, rgb{206, 192, 250}},
	{1, rgb{232, 137, 171}},
}

// Color interpolates the colorscale at the dot's size and returns #rrggbb.
func (d Dot) Color() string {
	t := (d.Size() - minSize) / (maxSize - minSize)
	t = math.Max(0, math.Min(1, t))

	for i := 1; i < len(colorscale); i++ {
		low, high := colorscale[i-1], colorscale[i]
		if t > high.at {
			continue
		}
		f := (t - low.at) / (high.at - low.at)
		return fmt.Sprintf("#%02x%02x%02x",
			int(math.Round(low.color.r+f*(high.color.r-low.color.r))),
			int(math.Round(low.color.g+f*(high.color.g-low.color.g))),
			int(math.Round(low.color.b+f*(high.color.b-low.color.b))))
	}
	last := colorscale[len(colorscale)-1].color
	return fmt.Sprintf("#%02x%02x%02x", int(last.r), int(last.g), int(last.b))
}

var glyphs = map[string]rune{Smol: '·', OkIsh: '∘', Medium: '○', Big: '●'}

// Render plots the dots on a columns × rows character grid. Later dots draw over
// earlier ones in the same cell.
func Render(dots []Dot, columns, rows int) string {
	type cell struct {
		glyph rune
		color string
	}
	grid := make([][]cell, rows)
	for r := range grid {
		grid[r] = make([]cell, columns)
	}

	for _, dot := range dots {
		column := int(dot.X / Width * float64(columns))
		row := int((1 - dot.Y) * float64(rows))
		if column < 0 || column >= columns || row < 0 || row >= rows {
			continue
		}
		grid[row][column] = cell{glyph: glyphs[dot.Label()], color: dot.Color()}
	}

	var b strings.Builder
	for r, line := range grid {
		for _, c := range line {
			if c.glyph == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.color)).Render(string(c.glyph)))
		}
		if r < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SVG renders the banner as an inline SVG fragment of the given pixel width,
// with one circle per dot and a hover title naming its class.
func SVG(dots []Dot, pixelWidth int) string {
	scale := float64(pixelWidth) / Width
	pixelHeight := int(math.Round(scale))

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		pixelWidth, pixelHeight, pixelWidth, pixelHeight)
	for _, dot := range dots {
		fmt.Fprintf(&b, `  <circle cx="%.1f" cy="%.1f" r="%.2f" fill="%s" fill-opacity="0.9"><title>Dot category: %s</title></circle>`+"\n",
			dot.X*scale, (1-dot.Y)*scale, dot.Size()/2, dot.Color(), dot.Label())
	}
	b.WriteString("</svg>\n")
	return b.String()
}
