// Package huggingface provides a client for the Hugging Face Dataset Viewer API.
// It fetches dataset rows via REST and extracts text (and class labels) for embedding.
package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alDuncanson/manifold/dataset"
)

const baseURL = "https://datasets-server.huggingface.co"

// pageSize is the Dataset Viewer's maximum rows per request.
const pageSize = 100

// Client interacts with the Hugging Face Dataset Viewer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Hugging Face API client.
func NewClient() *Client {
	return &Client{baseURL: baseURL, httpClient: &http.Client{}}
}

// SplitsResponse represents the response from the /splits endpoint.
type SplitsResponse struct {
	Splits []Split `json:"splits"`
}

// Split represents a dataset split.
type Split struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

// RowsResponse represents the response from the /rows endpoint.
type RowsResponse struct {
	Rows []RowWrapper `json:"rows"`
}

// RowWrapper wraps an individual row from the dataset.
type RowWrapper struct {
	RowIdx int                    `json:"row_idx"`
	Row    map[string]interface{} `json:"row"`
}

// GetSplits fetches available splits for a dataset.
func (c *Client) GetSplits(ctx context.Context, dataset string) (*SplitsResponse, error) {
	reqURL := fmt.Sprintf("%s/splits?dataset=%s", c.baseURL, url.QueryEscape(dataset))

	var result SplitsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRows fetches rows from a dataset split.
func (c *Client) GetRows(ctx context.Context, dataset, config, split string, offset, length int) (*RowsResponse, error) {
	reqURL := fmt.Sprintf("%s/rows?dataset=%s&config=%s&split=%s&offset=%s&length=%s",
		c.baseURL,
		url.QueryEscape(dataset),
		url.QueryEscape(config),
		url.QueryEscape(split),
		strconv.Itoa(offset),
		strconv.Itoa(length),
	)

	var result RowsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FetchTexts fetches all text values from a dataset column.
func (c *Client) FetchTexts(ctx context.Context, dataset, config, split, column string, maxRows int) ([]string, error) {
	var texts []string
	err := c.eachRow(ctx, dataset, config, split, maxRows, func(row map[string]interface{}) {
		if text := textOf(row, column); text != "" {
			texts = append(texts, text)
		}
	})
	return texts, err
}

// FetchLabeledTexts fetches text and class label pairs. Numeric labels are used as
// is; string labels are numbered in order of first appearance. Rows without text
// are skipped and rows without a label get dataset.Unlabeled.
func (c *Client) FetchLabeledTexts(ctx context.Context, ds, config, split, textColumn, labelColumn string, maxRows int) ([]dataset.LabeledText, error) {
	var out []dataset.LabeledText
	classes := newClassIndex()
	err := c.eachRow(ctx, ds, config, split, maxRows, func(row map[string]interface{}) {
		text := textOf(row, textColumn)
		if text == "" {
			return
		}
		out = append(out, dataset.LabeledText{Text: text, Label: classes.label(row[labelColumn])})
	})
	return out, err
}

// eachRow paginates through the split in chunks of pageSize rows.
func (c *Client) eachRow(ctx context.Context, dataset, config, split string, maxRows int, visit func(map[string]interface{})) error {
	offset := 0
	for {
		if maxRows > 0 && offset >= maxRows {
			return nil
		}

		remaining := pageSize
		if maxRows > 0 && offset+pageSize > maxRows {
			remaining = maxRows - offset
		}

		rows, err := c.GetRows(ctx, dataset, config, split, offset, remaining)
		if err != nil {
			return err
		}
		if len(rows.Rows) == 0 {
			return nil
		}

		for _, wrapper := range rows.Rows {
			visit(wrapper.Row)
		}

		offset += len(rows.Rows)
		if len(rows.Rows) < remaining {
			return nil
		}
	}
}

func textOf(row map[string]interface{}, column string) string {
	text, _ := row[column].(string)
	return text
}

type classIndex map[string]int

func newClassIndex() classIndex { return classIndex{} }

func (classes classIndex) label(value interface{}) int {
	switch v := value.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return dataset.Unlabeled
		}
		return int(v)
	case string:
		if v == "" {
			return dataset.Unlabeled
		}
		if id, ok := classes[v]; ok {
			return id
		}
		id := len(classes)
		classes[v] = id
		return id
	default:
		return dataset.Unlabeled
	}
}
