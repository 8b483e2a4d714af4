package banner

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		z    float64
		want string
	}{
		{0, Smol},
		{0.2499, Smol},
		{0.25, OkIsh},
		{0.5, Medium},
		{0.74, Medium},
		{0.75, Big},
		{0.999, Big},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Label(tc.z), "z=%v", tc.z)
	}
}

func TestGenerate(t *testing.T) {
	dots := Generate(DefaultDots, 1)
	require.Len(t, dots, DefaultDots)

	for _, dot := range dots {
		assert.True(t, dot.X >= 0 && dot.X < Width)
		assert.True(t, dot.Y >= 0 && dot.Y < 1)
		assert.True(t, dot.Size() >= 5 && dot.Size() < 10)
	}
	assert.Equal(t, dots, Generate(DefaultDots, 1))

	counts := Count(dots)
	total := 0
	for _, count := range counts {
		assert.Greater(t, count, 64, "each quarter gets a fair share")
		total += count
	}
	assert.Equal(t, DefaultDots, total)
}

func TestColor(t *testing.T) {
	assert.Equal(t, "#4ea5b7", Dot{Z: 0}.Color())
	assert.Equal(t, "#cec0fa", Dot{Z: 0.5}.Color())
	assert.Equal(t, "#e889ab", Dot{Z: 1}.Color())
}

func TestRender(t *testing.T) {
	dots := []Dot{
		{X: 0, Y: 0.99, Z: 0.1},
		{X: 2.99, Y: 0.01, Z: 0.9},
		{X: 1.5, Y: 0.5, Z: 0.6},
	}
	lines := strings.Split(ansi.Strip(Render(dots, 30, 10)), "\n")
	require.Len(t, lines, 10)

	assert.Equal(t, '·', []rune(lines[0])[0])
	assert.Equal(t, '●', []rune(lines[9])[29])
	assert.Equal(t, '○', []rune(lines[5])[15])
	for _, line := range lines {
		assert.Equal(t, 30, utf8.RuneCountInString(line))
	}
}

func TestSVG(t *testing.T) {
	svg := SVG([]Dot{{X: 1.5, Y: 0.5, Z: 0.8}}, 1200)

	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="400"`))
	assert.Contains(t, svg, `cx="600.0" cy="200.0" r="4.50"`)
	assert.Contains(t, svg, "Dot category: biiig dot")
	assert.Equal(t, 1, strings.Count(svg, "<circle"))
}
