package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/alDuncanson/manifold/projection"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// cellAspect is the height of a terminal cell relative to its width.
const cellAspect = 2.0

const canvasPadding = 1

// labelPalette colors clusters by label, cycling when there are more labels.
var labelPalette = []lipgloss.Color{"39", "208", "118", "213", "220", "45", "203", "141"}

// canvasCell represents a single cell in the rendering grid with its character and styling.
type canvasCell struct {
	char  rune
	style lipgloss.Style
	empty bool
}

// canvasStyles holds all the lipgloss styles used for canvas rendering.
type canvasStyles struct {
	traceStyle    lipgloss.Style
	pathLineStyle lipgloss.Style
	pathStyle     lipgloss.Style
	endStyle      lipgloss.Style
	startStyle    lipgloss.Style
	startLabel    lipgloss.Style
}

func defineCanvasStyles() canvasStyles {
	return canvasStyles{
		traceStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		pathLineStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		pathStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true),
		endStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		startStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		startLabel:    lipgloss.NewStyle().Foreground(lipgloss.Color("118")).Bold(true),
	}
}

// labelStyle colors a cluster; unlabeled and noise points are dim gray.
func labelStyle(label int) lipgloss.Style {
	if label < 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	}
	return lipgloss.NewStyle().Foreground(labelPalette[label%len(labelPalette)])
}

// viewport maps plane coordinates to grid cells with a uniform scale, so the
// fitted circle renders round.
type viewport struct {
	minX, maxY       float64
	scale            float64
	offsetX, offsetY float64
	width, height    int
}

func newViewport(points []projection.Point2D, width, height int) viewport {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, point := range points {
		minX = math.Min(minX, point.X)
		maxX = math.Max(maxX, point.X)
		minY = math.Min(minY, point.Y)
		maxY = math.Max(maxY, point.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	plotWidth := float64(width - 2*canvasPadding - 1)
	plotHeight := float64(height - 2*canvasPadding - 1)
	scale := math.Min(plotWidth/(rangeX*cellAspect), plotHeight/rangeY)
	if scale <= 0 {
		scale = 1
	}

	return viewport{
		minX:    minX,
		maxY:    maxY,
		scale:   scale,
		offsetX: (plotWidth - rangeX*scale*cellAspect) / 2,
		offsetY: (plotHeight - rangeY*scale) / 2,
		width:   width,
		height:  height,
	}
}

// cell returns the column and row for p, clamped to the grid. Rows grow downward,
// so y is flipped.
func (v viewport) cell(p projection.Point2D) (int, int) {
	column := canvasPadding + int(math.Round(v.offsetX+(p.X-v.minX)*v.scale*cellAspect))
	row := canvasPadding + int(math.Round(v.offsetY+(v.maxY-p.Y)*v.scale))
	return clampInt(column, 0, v.width-1), clampInt(row, 0, v.height-1)
}

// renderCanvas draws the circle trace, the dataset, and the steering path.
func (model Model) renderCanvas(canvasWidth, canvasHeight int) string {
	canvasGrid := initializeCanvasGrid(canvasWidth, canvasHeight)
	styles := defineCanvasStyles()

	bounds := make([]projection.Point2D, 0, len(model.embedding)+len(model.trace)+len(model.path))
	bounds = append(bounds, model.embedding...)
	bounds = append(bounds, model.trace...)
	bounds = append(bounds, model.path...)
	view := newViewport(bounds, canvasWidth, canvasHeight)

	for _, point := range model.trace {
		column, row := view.cell(point)
		canvasGrid[row][column] = canvasCell{char: '·', style: styles.traceStyle}
	}

	selectedLabel := model.labels[model.selectedIndex]
	for i, point := range model.embedding {
		if model.focusMode && model.labels[i] != selectedLabel {
			continue
		}
		column, row := view.cell(point)
		canvasGrid[row][column] = canvasCell{char: '○', style: labelStyle(model.labels[i])}
	}

	model.renderPath(canvasGrid, view, styles)

	return canvasGridToString(canvasGrid)
}

// renderPath draws connector lines between successive path points, then the
// markers: intermediate steps, the end point and the starting point on top.
func (model Model) renderPath(canvasGrid [][]canvasCell, view viewport, styles canvasStyles) {
	cells := make([][2]int, len(model.path))
	for i, point := range model.path {
		column, row := view.cell(point)
		cells[i] = [2]int{column, row}
	}

	for i := 1; i < len(cells); i++ {
		drawLineOnCanvas(canvasGrid, cells[i-1][0], cells[i-1][1], cells[i][0], cells[i][1], styles.pathLineStyle)
	}

	for i := 1; i < len(cells)-1; i++ {
		canvasGrid[cells[i][1]][cells[i][0]] = canvasCell{char: '◆', style: styles.pathStyle}
	}
	if len(cells) > 1 {
		end := cells[len(cells)-1]
		canvasGrid[end[1]][end[0]] = canvasCell{char: '●', style: styles.endStyle}
	}

	start := cells[0]
	startColumn := clampInt(start[0]-1, 0, len(canvasGrid[0])-1)
	for offset, markerRune := range "[*]" {
		if startColumn+offset < len(canvasGrid[0]) {
			canvasGrid[start[1]][startColumn+offset] = canvasCell{char: markerRune, style: styles.startStyle}
		}
	}

	label := truncate.String(model.pointName(model.selectedIndex), 12)
	labelStartColumn := startColumn + 4
	for characterOffset, labelCharacter := range []rune(label) {
		if labelStartColumn+characterOffset < len(canvasGrid[0]) {
			canvasGrid[start[1]][labelStartColumn+characterOffset] = canvasCell{char: labelCharacter, style: styles.startLabel}
		}
	}
}

// pointName is the row's text when the dataset has one, or its index.
func (model Model) pointName(index int) string {
	if text := model.steerer.Dataset().Text(index); text != "" {
		return text
	}
	return "#" + strconv.Itoa(index)
}

// initializeCanvasGrid creates a 2D grid of empty canvas cells.
func initializeCanvasGrid(canvasWidth, canvasHeight int) [][]canvasCell {
	canvasGrid := make([][]canvasCell, canvasHeight)
	for rowIndex := range canvasGrid {
		canvasGrid[rowIndex] = make([]canvasCell, canvasWidth)
		for columnIndex := range canvasGrid[rowIndex] {
			canvasGrid[rowIndex][columnIndex] = canvasCell{char: ' ', style: lipgloss.NewStyle(), empty: true}
		}
	}
	return canvasGrid
}

// canvasGridToString converts the 2D canvas grid into a renderable string.
func canvasGridToString(canvasGrid [][]canvasCell) string {
	var outputBuilder strings.Builder

	for rowIndex, gridRow := range canvasGrid {
		for _, cell := range gridRow {
			if cell.empty {
				outputBuilder.WriteRune(' ')
				continue
			}
			outputBuilder.WriteString(cell.style.Render(string(cell.char)))
		}
		// Add newline between rows, but not after the last row
		if rowIndex < len(canvasGrid)-1 {
			outputBuilder.WriteString("\n")
		}
	}

	return outputBuilder.String()
}

// drawLineOnCanvas uses Bresenham's line algorithm to draw a line between two points,
// filling only empty cells.
func drawLineOnCanvas(canvasGrid [][]canvasCell, startX, startY, endX, endY int, lineStyle lipgloss.Style) {
	deltaX := absoluteValue(endX - startX)
	deltaY := absoluteValue(endY - startY)

	stepDirectionX := 1
	if startX > endX {
		stepDirectionX = -1
	}
	stepDirectionY := 1
	if startY > endY {
		stepDirectionY = -1
	}

	// The error term is the difference between the ideal line and the current cell
	errorTerm := deltaX - deltaY
	currentX := startX
	currentY := startY

	for {
		if currentY >= 0 && currentY < len(canvasGrid) && currentX >= 0 && currentX < len(canvasGrid[0]) {
			if canvasGrid[currentY][currentX].empty {
				canvasGrid[currentY][currentX] = canvasCell{char: '·', style: lineStyle}
			}
		}

		if currentX == endX && currentY == endY {
			break
		}

		doubledError := 2 * errorTerm
		if doubledError > -deltaY {
			errorTerm -= deltaY
			currentX += stepDirectionX
		}
		if doubledError < deltaX {
			errorTerm += deltaX
			currentY += stepDirectionY
		}
	}
}

// absoluteValue returns the absolute value of an integer.
func absoluteValue(number int) int {
	if number < 0 {
		return -number
	}
	return number
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
