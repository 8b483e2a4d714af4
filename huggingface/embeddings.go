package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

const inferenceAPIBaseURL = "https://api-inference.huggingface.co"

// EmbeddingsClient embeds text with a sentence-transformers model on the Hugging
// Face Inference API feature-extraction pipeline.
type EmbeddingsClient struct {
	baseURL    string
	modelID    string
	token      string
	httpClient *http.Client
}

// embeddingsRequest is the pipeline payload. Inputs is a string or a []string.
type embeddingsRequest struct {
	Inputs  any             `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// NewEmbeddingsClient returns a client for modelID. An empty token falls back to
// HF_TOKEN.
func NewEmbeddingsClient(modelID, token string) *EmbeddingsClient {
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}
	return &EmbeddingsClient{
		baseURL:    inferenceAPIBaseURL,
		modelID:    modelID,
		token:      token,
		httpClient: &http.Client{},
	}
}

// Embed returns the pooled sentence vector for inputText, or nil for an empty text.
func (c *EmbeddingsClient) Embed(ctx context.Context, inputText string) ([]float32, error) {
	if inputText == "" {
		return nil, nil
	}

	vectors, err := c.featureExtraction(ctx, inputText)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text in a single request.
func (c *EmbeddingsClient) EmbedBatch(ctx context.Context, inputTexts []string) ([][]float32, error) {
	if len(inputTexts) == 0 {
		return nil, nil
	}

	vectors, err := c.featureExtraction(ctx, inputTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(inputTexts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(vectors), len(inputTexts))
	}
	return vectors, nil
}

func (c *EmbeddingsClient) featureExtraction(ctx context.Context, inputs any) ([][]float32, error) {
	jsonBody, err := json.Marshal(embeddingsRequest{
		Inputs:  inputs,
		Options: map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", c.baseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorBody map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("API error %d: %v", resp.StatusCode, errorBody)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	vectors, err := decodeVectors(raw)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return vectors, nil
}

// decodeVectors accepts a list of vectors, or the bare vector some models return
// for a single string input.
func decodeVectors(raw json.RawMessage) ([][]float32, error) {
	var vectors [][]float32
	if err := json.Unmarshal(raw, &vectors); err == nil {
		return vectors, nil
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, fmt.Errorf("decode response: expected a vector or a list of vectors: %w", err)
	}
	if len(vector) == 0 {
		return nil, nil
	}
	return [][]float32{vector}, nil
}
