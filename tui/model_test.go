package tui

import (
	"math"
	"strings"
	"testing"

	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/projection"
	"github.com/alDuncanson/manifold/steering"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	ds, _, err := dataset.GenerateCircularClusters(dataset.CircularClusters{
		Samples:    60,
		Clusters:   3,
		Dimension:  5,
		Radius:     5,
		ClusterStd: 0.1,
		Seed:       3,
	})
	require.NoError(t, err)

	steerer, err := steering.Fit(ds, projection.PCA{})
	require.NoError(t, err)

	return NewModel(steerer, steering.DefaultParams(), 4, "v-test")
}

func press(model Model, keys ...tea.KeyMsg) Model {
	for _, key := range keys {
		updated, _ := model.Update(key)
		model = updated.(Model)
	}
	return model
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	model := newTestModel(t)

	assert.Equal(t, 0, model.selectedIndex)
	require.Len(t, model.path, 1)
	assert.Equal(t, model.embedding[0], model.path[0])
	assert.Empty(t, model.steps)
	assert.Len(t, model.trace, traceResolution)
	assert.Len(t, model.labels, 60)
}

func TestSteerKeys(t *testing.T) {
	model := press(newTestModel(t), runes("l"))

	require.Len(t, model.steps, 1)
	require.Len(t, model.path, 2)
	assert.Equal(t, steering.Counterclockwise, model.steps[0].Direction)
	assert.InDelta(t, 0.1, angleDelta(model.steps[0].PreviousAngle, model.steps[0].NewAngle), 1e-9)

	model = press(model, tea.KeyMsg{Type: tea.KeyLeft})
	require.Len(t, model.steps, 2)
	assert.Equal(t, steering.Clockwise, model.steps[1].Direction)

	model = press(model, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, model.steps, 6)
	assert.Len(t, model.visited, 7)
	assert.Len(t, model.path, 7)

	model = press(model, runes("r"))
	assert.Len(t, model.path, 1)
	assert.Empty(t, model.steps)
	assert.NoError(t, model.err)
}

func TestFlipDirection(t *testing.T) {
	model := press(newTestModel(t), runes("d"), tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, model.steps, 4)
	for _, step := range model.steps {
		assert.Equal(t, steering.Clockwise, step.Direction)
	}
}

func TestSteeredPathFollowsCircle(t *testing.T) {
	model := newTestModel(t)
	model = press(model, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter})

	c := model.steerer.Circle()
	start := c.AngleOf(model.path[0])
	end := c.AngleOf(model.path[len(model.path)-1])
	assert.Greater(t, angleDelta(start, end), 0.0)
}

func TestSelectPointWraps(t *testing.T) {
	model := press(newTestModel(t), runes("l"), tea.KeyMsg{Type: tea.KeyUp})

	assert.Equal(t, 59, model.selectedIndex)
	assert.Empty(t, model.steps, "selection restarts the path")
	assert.Equal(t, model.embedding[59], model.path[0])

	model = press(model, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, model.selectedIndex)
}

func TestParamsClamp(t *testing.T) {
	model := newTestModel(t)

	for i := 0; i < 20; i++ {
		model = press(model, runes("+"))
	}
	assert.Equal(t, 1.0, model.params.Strength)

	for i := 0; i < 30; i++ {
		model = press(model, runes("-"))
	}
	assert.Equal(t, 0.0, model.params.Strength)

	model = press(model, runes("]"))
	assert.InDelta(t, 0.15, model.params.StepSize, 1e-12)
	for i := 0; i < 5; i++ {
		model = press(model, runes("["))
	}
	assert.Equal(t, 0.0, model.params.StepSize)

	// zero strength leaves the point where it was
	model = press(model, runes("]"), runes("l"))
	require.Len(t, model.visited, 2)
	assert.Equal(t, model.visited[0], model.visited[1])
}

func TestQuit(t *testing.T) {
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := newTestModel(t).Update(key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestWindowSize(t *testing.T) {
	updated, _ := newTestModel(t).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model := updated.(Model)
	assert.Equal(t, 120, model.width)
	assert.Equal(t, 40, model.height)
}

func TestView(t *testing.T) {
	model := press(newTestModel(t), runes("l"))

	view := ansi.Strip(model.View())
	assert.Contains(t, view, "manifold")
	assert.Contains(t, view, "Visualization")
	assert.Contains(t, view, "Selected")
	assert.Contains(t, view, "v-test")

	// the info panel can cover the start marker
	canvasOnly := ansi.Strip(press(model, runes("/")).View())
	assert.Contains(t, canvasOnly, "[*]")
	assert.NotContains(t, canvasOnly, "Selected")

	pathView := ansi.Strip(press(model, runes("2")).View())
	assert.Contains(t, pathView, "from θ")
	assert.Contains(t, pathView, "   1  ")

	statsView := ansi.Strip(press(model, runes("3")).View())
	assert.Contains(t, statsView, "Projection")
	assert.Contains(t, statsView, "pca")
	assert.Contains(t, statsView, "Explained var")
	assert.Contains(t, statsView, "Class 2")
}

func TestViewportKeepsCircleRound(t *testing.T) {
	circle := []projection.Point2D{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}}
	view := newViewport(circle, 60, 20)

	leftColumn, middleRow := view.cell(circle[0])
	rightColumn, _ := view.cell(circle[1])
	centerColumn, bottomRow := view.cell(circle[2])
	_, topRow := view.cell(circle[3])

	assert.Less(t, topRow, bottomRow, "y grows upward on screen")
	assert.InDelta(t, float64(rightColumn-leftColumn), cellAspect*float64(bottomRow-topRow), 1)
	assert.InDelta(t, (leftColumn+rightColumn)/2, centerColumn, 1)
	assert.InDelta(t, (topRow+bottomRow)/2, middleRow, 1)

	for _, point := range []projection.Point2D{{X: 100, Y: -100}, {X: -100, Y: 100}} {
		column, row := view.cell(point)
		assert.True(t, column >= 0 && column < 60 && row >= 0 && row < 20)
	}
}

func TestDrawLineOnCanvas(t *testing.T) {
	grid := initializeCanvasGrid(10, 5)
	drawLineOnCanvas(grid, 0, 0, 9, 4, lipgloss.NewStyle())

	assert.Equal(t, '·', grid[0][0].char)
	assert.Equal(t, '·', grid[4][9].char)
	assert.True(t, grid[4][0].empty)

	lines := strings.Split(canvasGridToString(grid), "\n")
	assert.Len(t, lines, 5)
}

func TestOverlayAt(t *testing.T) {
	base := strings.Repeat(strings.Repeat(".", 20)+"\n", 4) + strings.Repeat(".", 20)
	out := overlayAt(base, "ab\ncd", 5, 1)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, ".....ab.............", lines[1])
	assert.Equal(t, ".....cd.............", lines[2])
	for _, line := range lines {
		assert.Equal(t, 20, ansi.StringWidth(line))
	}
}

func TestFitLines(t *testing.T) {
	assert.Equal(t, "a\n\n", fitLines([]string{"a"}, 3))
	assert.Equal(t, "a\nb", fitLines([]string{"a", "b", "c"}, 2))
}

func TestClampRounded(t *testing.T) {
	assert.Equal(t, 0.35, clampRounded(0.30000000000000004+0.05, 0, 1))
	assert.Equal(t, 1.0, clampRounded(1.2, 0, 1))
	assert.Equal(t, 0.0, clampRounded(-0.05, 0, 1))
}

// angleDelta is to − from wrapped into (−π, π].
func angleDelta(from, to float64) float64 {
	delta := math.Mod(to-from, 2*math.Pi)
	if delta > math.Pi {
		delta -= 2 * math.Pi
	}
	if delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}
