// Package tui is an interactive steering visualizer. It plots the 2-D embedding of
// a dataset by label, the fitted circle, and the path of a point being steered
// around it.
package tui

import (
	"fmt"
	"math"

	"github.com/alDuncanson/manifold/projection"
	"github.com/alDuncanson/manifold/steering"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	strengthIncrement = 0.05
	stepIncrement     = 0.05
	traceResolution   = 720
)

// Model represents the application state of the steering visualizer.
type Model struct {
	width, height int

	steerer   *steering.Steerer
	embedding []projection.Point2D
	trace     []projection.Point2D
	labels    []int

	params    steering.Params
	batchSize int

	selectedIndex int
	visited       [][]float64
	path          []projection.Point2D
	steps         []steering.Step

	err          error
	activeTab    viewTab
	showMetadata bool
	focusMode    bool
	version      string
}

// NewModel creates a visualizer for a steerer built by steering.Fit. Enter runs
// batchSize steps at once.
func NewModel(steerer *steering.Steerer, params steering.Params, batchSize int, version string) Model {
	model := Model{
		width:        80,
		height:       24,
		steerer:      steerer,
		embedding:    steerer.Model().Embedding(),
		trace:        steerer.Circle().Trace(traceResolution),
		labels:       steerer.Dataset().Labels(),
		params:       params,
		batchSize:    batchSize,
		showMetadata: true,
		version:      version,
	}
	if model.batchSize < 1 {
		model.batchSize = 1
	}
	model.resetPath()
	return model
}

// Init sets the window title.
func (model Model) Init() tea.Cmd {
	return tea.SetWindowTitle("manifold")
}

// Update handles all incoming messages and updates the model state accordingly.
func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch message := msg.(type) {
	case tea.KeyMsg:
		return model.handleKeyPress(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
	}

	return model, nil
}

// handleKeyPress processes keyboard input and returns the updated model and any commands.
func (model Model) handleKeyPress(keyMessage tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMessage.String() {
	case "ctrl+c", "esc", "q":
		return model, tea.Quit

	case "right", "l":
		model.extendPath(steering.Counterclockwise, 1)

	case "left", "h":
		model.extendPath(steering.Clockwise, 1)

	case "enter":
		model.extendPath(model.params.Direction, model.batchSize)

	case "d":
		model.params.Direction = -model.params.Direction

	case "down", "j", "tab":
		model.selectPoint(model.selectedIndex + 1)

	case "up", "k", "shift+tab":
		model.selectPoint(model.selectedIndex - 1)

	case "+", "=":
		model.params.Strength = clampRounded(model.params.Strength+strengthIncrement, 0, 1)

	case "-":
		model.params.Strength = clampRounded(model.params.Strength-strengthIncrement, 0, 1)

	case "]":
		model.params.StepSize = clampRounded(model.params.StepSize+stepIncrement, 0, math.Pi)

	case "[":
		model.params.StepSize = clampRounded(model.params.StepSize-stepIncrement, 0, math.Pi)

	case "r":
		model.resetPath()

	case "f":
		model.focusMode = !model.focusMode

	case "/":
		model.showMetadata = !model.showMetadata

	case "1":
		model.activeTab = tabVisualization
	case "2":
		model.activeTab = tabPath
	case "3":
		model.activeTab = tabStats
	}

	return model, nil
}

// selectPoint wraps index into range, selects it and restarts the path there.
func (model *Model) selectPoint(index int) {
	count := len(model.embedding)
	model.selectedIndex = ((index % count) + count) % count
	model.resetPath()
}

// resetPath restarts steering from the selected dataset row.
func (model *Model) resetPath() {
	model.visited = [][]float64{model.steerer.Dataset().Row(model.selectedIndex)}
	model.path = []projection.Point2D{model.embedding[model.selectedIndex]}
	model.steps = nil
	model.err = nil
}

// extendPath steers the last visited point n more steps in direction.
func (model *Model) extendPath(direction steering.Direction, n int) {
	params := model.params
	params.Direction = direction

	last := model.visited[len(model.visited)-1]
	points, steps, err := model.steerer.SteerSteps(last, params, n)
	if err != nil {
		model.err = err
		return
	}
	positions, err := model.steerer.Path(points[1:])
	if err != nil {
		model.err = err
		return
	}

	model.visited = append(model.visited, points[1:]...)
	model.path = append(model.path, positions...)
	model.steps = append(model.steps, steps...)
	model.err = nil
}

// currentAngle is the angle of the path's last point about the circle center.
func (model Model) currentAngle() float64 {
	return model.steerer.Circle().AngleOf(model.path[len(model.path)-1])
}

// View renders the complete UI as a string.
func (model Model) View() string {
	s := newStyles()
	layout := model.calculateLayout()

	var content string
	switch model.activeTab {
	case tabPath:
		content = model.renderPathList(s, layout)
	case tabStats:
		content = model.renderStats(s, layout)
	default:
		content = model.renderContentArea(s, layout)
	}

	sections := []string{
		model.renderTabBar(s, layout.totalWidth),
		content,
		model.renderStatusBar(s, layout.totalWidth),
	}
	if errorLine := model.renderError(s); errorLine != "" {
		sections = append(sections, errorLine)
	}

	return lipgloss.NewStyle().Margin(1, 1).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func clampRounded(value, low, high float64) float64 {
	value = math.Round(value*100) / 100
	return math.Max(low, math.Min(high, value))
}

func formatPoint(p projection.Point2D) string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}
