package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LabeledText is a text to embed, with the label its vector should carry.
type LabeledText struct {
	Text  string
	Label int
}

type jsonRow struct {
	Text   string    `json:"text,omitempty"`
	Label  *int      `json:"label,omitempty"`
	Vector []float64 `json:"vector"`
}

// Load reads a labeled dataset from a .csv or .json file.
//
// CSV files need a header row. A "label" column holds integer labels, an optional
// "text" column holds row text, and every other column is a numeric feature.
// JSON files hold an array of {"vector": [...], "label": n, "text": "..."} objects.
// Rows without a label are Unlabeled.
func Load(path string) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func loadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file has no data rows")
	}

	labelCol, textCol := -1, -1
	var featureCols []int
	for i, header := range records[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "label":
			labelCol = i
		case "text":
			textCol = i
		default:
			featureCols = append(featureCols, i)
		}
	}
	if len(featureCols) == 0 {
		return nil, fmt.Errorf("CSV has no feature columns")
	}

	rows := make([][]float64, 0, len(records)-1)
	labels := make([]int, 0, len(records)-1)
	var texts []string
	if textCol >= 0 {
		texts = make([]string, 0, len(records)-1)
	}

	for lineIndex, record := range records[1:] {
		line := lineIndex + 2
		row := make([]float64, len(featureCols))
		for j, col := range featureCols {
			value, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, records[0][col], err)
			}
			row[j] = value
		}
		rows = append(rows, row)

		label := Unlabeled
		if labelCol >= 0 && strings.TrimSpace(record[labelCol]) != "" {
			label, err = strconv.Atoi(strings.TrimSpace(record[labelCol]))
			if err != nil {
				return nil, fmt.Errorf("line %d label: %w", line, err)
			}
		}
		labels = append(labels, label)

		if textCol >= 0 {
			texts = append(texts, record[textCol])
		}
	}

	return New(rows, labels, texts)
}

func loadJSON(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON file: %w", err)
	}

	var objects []jsonRow
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("parsing JSON: expected array of objects with 'vector' field: %w", err)
	}

	rows := make([][]float64, 0, len(objects))
	labels := make([]int, 0, len(objects))
	texts := make([]string, 0, len(objects))
	hasText := false
	for i, obj := range objects {
		if len(obj.Vector) == 0 {
			return nil, fmt.Errorf("entry %d missing vector field", i)
		}
		rows = append(rows, obj.Vector)

		label := Unlabeled
		if obj.Label != nil {
			label = *obj.Label
		}
		labels = append(labels, label)

		texts = append(texts, obj.Text)
		hasText = hasText || obj.Text != ""
	}

	if !hasText {
		texts = nil
	}
	return New(rows, labels, texts)
}

// LoadTexts reads texts to embed from a .csv file with a "text" column (and an
// optional "label" column) or a .json array of strings or {"text", "label"} objects.
func LoadTexts(path string) ([]LabeledText, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return loadTextsCSV(path)
	case ".json":
		return loadTextsJSON(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func loadTextsCSV(path string) ([]LabeledText, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	textCol, labelCol := -1, -1
	for i, header := range records[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "text":
			textCol = i
		case "label":
			labelCol = i
		}
	}
	if textCol == -1 {
		return nil, fmt.Errorf("CSV missing 'text' column header")
	}

	texts := make([]LabeledText, 0, len(records)-1)
	for lineIndex, row := range records[1:] {
		if textCol >= len(row) || row[textCol] == "" {
			continue
		}
		entry := LabeledText{Text: row[textCol], Label: Unlabeled}
		if labelCol >= 0 && labelCol < len(row) && strings.TrimSpace(row[labelCol]) != "" {
			entry.Label, err = strconv.Atoi(strings.TrimSpace(row[labelCol]))
			if err != nil {
				return nil, fmt.Errorf("line %d label: %w", lineIndex+2, err)
			}
		}
		texts = append(texts, entry)
	}

	return texts, nil
}

func loadTextsJSON(path string) ([]LabeledText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON file: %w", err)
	}

	var stringArray []string
	if err := json.Unmarshal(data, &stringArray); err == nil {
		texts := make([]LabeledText, len(stringArray))
		for i, text := range stringArray {
			texts[i] = LabeledText{Text: text, Label: Unlabeled}
		}
		return texts, nil
	}

	var objectArray []jsonRow
	if err := json.Unmarshal(data, &objectArray); err != nil {
		return nil, fmt.Errorf("parsing JSON: expected array of strings or objects with 'text' field: %w", err)
	}

	texts := make([]LabeledText, 0, len(objectArray))
	for i, obj := range objectArray {
		if obj.Text == "" {
			return nil, fmt.Errorf("entry %d missing text field", i)
		}
		entry := LabeledText{Text: obj.Text, Label: Unlabeled}
		if obj.Label != nil {
			entry.Label = *obj.Label
		}
		texts = append(texts, entry)
	}

	return texts, nil
}
