package tui

import (
	"fmt"
	"strings"

	"github.com/alDuncanson/manifold/projection"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"
	"gonum.org/v1/gonum/floats"
)

const (
	overlayPanelWidth  = 40
	overlayPanelHeight = 16
	minCanvasWidth     = 40
	minCanvasHeight    = 10
	tabBarHeight       = 1
	statusBarHeight    = 1
	borderSize         = 2
)

type viewTab int

const (
	tabVisualization viewTab = iota
	tabPath
	tabStats
)

type layoutDimensions struct {
	totalWidth   int
	totalHeight  int
	canvasWidth  int
	canvasHeight int
}

func (m Model) calculateLayout() layoutDimensions {
	marginX := 2
	marginY := 2

	totalWidth := m.width - marginX
	totalHeight := m.height - marginY

	canvasHeight := totalHeight - tabBarHeight - statusBarHeight
	if canvasHeight < minCanvasHeight {
		canvasHeight = minCanvasHeight
	}

	canvasWidth := totalWidth
	if canvasWidth < minCanvasWidth {
		canvasWidth = minCanvasWidth
	}

	return layoutDimensions{
		totalWidth:   totalWidth,
		totalHeight:  totalHeight,
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
	}
}

type styles struct {
	title       lipgloss.Style
	header      lipgloss.Style
	label       lipgloss.Style
	value       lipgloss.Style
	canvas      lipgloss.Style
	overlay     lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	tabBar      lipgloss.Style
	statusBar   lipgloss.Style
	errorText   lipgloss.Style
}

func newStyles() styles {
	accentColor := lipgloss.Color("#FF87D7")
	borderColor := lipgloss.Color("#5F5FAF")
	canvasBorderColor := lipgloss.Color("#FF8700")
	dimColor := lipgloss.Color("#6C6C6C")
	bgColor := lipgloss.Color("#303030")

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor),

		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),

		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")),

		canvas: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(canvasBorderColor),

		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Background(bgColor).
			Padding(0, 1),

		tabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Padding(0, 1),

		tabInactive: lipgloss.NewStyle().
			Foreground(dimColor).
			Padding(0, 1),

		tabBar: lipgloss.NewStyle().
			Foreground(dimColor),

		statusBar: lipgloss.NewStyle().
			Foreground(dimColor),

		errorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")),
	}
}

func (m Model) renderTabBar(s styles, width int) string {
	tabs := []struct {
		name string
		tab  viewTab
	}{
		{"Visualization", tabVisualization},
		{"Path", tabPath},
		{"Stats", tabStats},
	}

	var parts []string
	for _, t := range tabs {
		style := s.tabInactive
		if t.tab == m.activeTab {
			style = s.tabActive
		}
		parts = append(parts, style.Render(t.name))
	}

	tabRow := strings.Join(parts, s.tabBar.Render(" │ "))
	title := s.title.Render("manifold")

	tabWidth := lipgloss.Width(tabRow)
	titleWidth := lipgloss.Width(title)
	gap := width - tabWidth - titleWidth
	if gap < 1 {
		gap = 1
	}

	return tabRow + strings.Repeat(" ", gap) + title
}

func (m Model) renderContentArea(s styles, layout layoutDimensions) string {
	canvasInnerWidth := layout.canvasWidth - borderSize
	canvasInnerHeight := layout.canvasHeight - borderSize

	canvasContent := m.renderCanvas(canvasInnerWidth, canvasInnerHeight)
	canvasBox := s.canvas.
		Width(canvasInnerWidth).
		Height(canvasInnerHeight).
		Render(canvasContent)

	if m.showMetadata {
		canvasBox = m.overlayMetadataPanel(canvasBox, s, layout)
	}

	return canvasBox
}

func (m Model) overlayMetadataPanel(base string, s styles, layout layoutDimensions) string {
	panelInnerWidth := overlayPanelWidth - 4
	panelInnerHeight := overlayPanelHeight

	if panelInnerHeight > layout.canvasHeight-4 {
		panelInnerHeight = layout.canvasHeight - 4
	}

	metadataContent := m.renderMetadata(s, panelInnerWidth, panelInnerHeight)
	panel := s.overlay.
		Width(panelInnerWidth).
		Height(panelInnerHeight).
		Render(metadataContent)

	return overlayAt(base, panel, layout.canvasWidth-overlayPanelWidth-1, 1)
}

// renderMetadata describes the selected point, the steering parameters, and the
// last step taken.
func (m Model) renderMetadata(s styles, panelWidth, panelHeight int) string {
	field := func(name, value string) string {
		return s.label.Render(name+": ") + s.value.Render(value)
	}

	start := m.path[0]
	lines := []string{
		s.header.Render("Selected"),
		s.value.Render(truncate.StringWithTail(m.pointName(m.selectedIndex), uint(panelWidth), "…")),
		field("Label", fmt.Sprintf("%d", m.labels[m.selectedIndex])),
		field("Start θ", fmt.Sprintf("%.3f rad", m.steerer.Circle().AngleOf(start))),
		field("Now θ", fmt.Sprintf("%.3f rad", m.currentAngle())),
		"",
		s.header.Render("Steering"),
		field("Step", fmt.Sprintf("%.2f rad %s", m.params.StepSize, m.params.Direction)),
		field("Strength", fmt.Sprintf("%.2f", m.params.Strength)),
		field("Steps", fmt.Sprintf("%d", len(m.steps))),
	}

	if len(m.steps) > 0 {
		last := m.steps[len(m.steps)-1]
		lines = append(lines,
			field("Last", fmt.Sprintf("%.3f → %.3f", last.PreviousAngle, last.NewAngle)),
			field("|v|", fmt.Sprintf("%.4f", vectorNorm(last.SteeringVector))),
		)
	}

	lines = append(lines, "",
		s.header.Render("Circle"),
		field("Center", formatPoint(m.steerer.Circle().Center)),
		field("Radius", fmt.Sprintf("%.3f", m.steerer.Circle().Radius)),
	)

	return fitLines(lines, panelHeight)
}

// renderPathList shows the most recent steps that fit on screen.
func (m Model) renderPathList(s styles, layout layoutDimensions) string {
	innerWidth := layout.canvasWidth - borderSize
	innerHeight := layout.canvasHeight - borderSize

	lines := []string{s.header.Render(fmt.Sprintf("%4s  %8s  %8s  %8s  %s", "step", "from θ", "to θ", "|v|", "position"))}
	if len(m.steps) == 0 {
		lines = append(lines, s.label.Render("No steps yet: ←/→ steer one step, Enter runs a batch"))
	}

	first := 0
	if visible := innerHeight - 1; len(m.steps) > visible && visible > 0 {
		first = len(m.steps) - visible
	}
	for i := first; i < len(m.steps); i++ {
		step := m.steps[i]
		line := fmt.Sprintf("%4d  %8.3f  %8.3f  %8.4f  %s",
			i+1, step.PreviousAngle, step.NewAngle, vectorNorm(step.SteeringVector), formatPoint(m.path[i+1]))
		lines = append(lines, s.value.Render(truncate.String(line, uint(innerWidth))))
	}

	return s.canvas.Width(innerWidth).Height(innerHeight).Render(fitLines(lines, innerHeight))
}

// renderStats summarizes the fitted model, the dataset, and the circle.
func (m Model) renderStats(s styles, layout layoutDimensions) string {
	innerWidth := layout.canvasWidth - borderSize
	innerHeight := layout.canvasHeight - borderSize

	model := m.steerer.Model()
	data := m.steerer.Dataset()
	field := func(name, value string) string {
		return s.label.Render(fmt.Sprintf("%-16s", name)) + s.value.Render(value)
	}

	lines := []string{
		s.header.Render("Projection"),
		field("Method", string(model.Method())),
		field("Exact inverse", fmt.Sprintf("%t", model.ExactInverse())),
		field("Input dim", fmt.Sprintf("%d", model.InputDim())),
	}
	if pca, ok := model.(*projection.PCAModel); ok {
		ratio := pca.ExplainedVarianceRatio()
		lines = append(lines, field("Explained var", fmt.Sprintf("%.3f, %.3f", ratio[0], ratio[1])))
	}

	counts := map[int]int{}
	for _, label := range m.labels {
		counts[label]++
	}
	lines = append(lines, "",
		s.header.Render("Dataset"),
		field("Rows", fmt.Sprintf("%d", data.Len())),
	)
	for _, class := range data.Classes() {
		lines = append(lines, field(fmt.Sprintf("Class %d", class), fmt.Sprintf("%d", counts[class])))
	}

	lines = append(lines, "",
		s.header.Render("Circle"),
		field("Fit", m.steerer.Circle().String()),
	)

	return s.canvas.Width(innerWidth).Height(innerHeight).Render(fitLines(lines, innerHeight))
}

// fitLines pads or truncates lines to exactly height rows.
func fitLines(lines []string, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	if height >= 0 && len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func overlayAt(base, overlay string, x, y int) string {
	bgLines, bgWidth := getLines(base)
	fgLines, fgWidth := getLines(overlay)
	bgHeight := len(bgLines)
	fgHeight := len(fgLines)

	if fgWidth >= bgWidth && fgHeight >= bgHeight {
		return overlay
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > bgWidth-fgWidth {
		x = bgWidth - fgWidth
	}
	if y > bgHeight-fgHeight {
		y = bgHeight - fgHeight
	}

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+fgHeight {
			b.WriteString(bgLine)
			continue
		}

		pos := 0
		if x > 0 {
			left := truncate.String(bgLine, uint(x))
			pos = ansi.StringWidth(left)
			b.WriteString(left)
			if pos < x {
				b.WriteString(strings.Repeat(" ", x-pos))
				pos = x
			}
		}

		fgLine := fgLines[i-y]
		b.WriteString(fgLine)
		pos += ansi.StringWidth(fgLine)

		right := ansi.TruncateLeft(bgLine, pos, "")
		lineWidth := ansi.StringWidth(bgLine)
		rightWidth := ansi.StringWidth(right)
		if rightWidth <= lineWidth-pos {
			b.WriteString(strings.Repeat(" ", lineWidth-rightWidth-pos))
		}
		b.WriteString(right)
	}

	return b.String()
}

func getLines(s string) ([]string, int) {
	lines := strings.Split(s, "\n")
	widest := 0
	for _, l := range lines {
		w := ansi.StringWidth(l)
		if widest < w {
			widest = w
		}
	}
	return lines, widest
}

func (m Model) renderStatusBar(s styles, width int) string {
	help := "←/→: steer │ Enter: run " + fmt.Sprint(m.batchSize) + " │ d: flip │ ↑↓: point │ +/-: strength │ [/]: step │ r: reset │ f: focus │ /: info │ 1-3: tabs │ q: quit"

	version := m.version
	padding := width - lipgloss.Width(help) - lipgloss.Width(version)
	if padding < 1 {
		padding = 1
	}

	return s.statusBar.Render(help + strings.Repeat(" ", padding) + version)
}

func (m Model) renderError(s styles) string {
	if m.err == nil {
		return ""
	}
	return s.errorText.Render("Error: " + m.err.Error())
}

func vectorNorm(vector []float64) float64 {
	return floats.Norm(vector, 2)
}
