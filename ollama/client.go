// Package ollama embeds text with a local Ollama server through its /api/embed
// endpoint, one text or a batch per request.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to one Ollama server with one embedding model.
type Client struct {
	baseURL    string // e.g. "http://localhost:11434", no trailing slash
	modelName  string // e.g. "nomic-embed-text"
	httpClient *http.Client
}

// embeddingRequest is the /api/embed payload. Input is a string or a []string.
type embeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// embeddingResponse holds one vector per input, in input order.
type embeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewClient returns a client for the server at baseURL using modelName.
func NewClient(baseURL, modelName string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelName:  modelName,
		httpClient: &http.Client{},
	}
}

// Model returns the embedding model name.
func (ollamaClient *Client) Model() string { return ollamaClient.modelName }

// Embed returns the vector for inputText. An empty text returns nil without a
// request.
func (ollamaClient *Client) Embed(ctx context.Context, inputText string) ([]float32, error) {
	if inputText == "" {
		return nil, nil
	}

	embeddings, err := ollamaClient.embed(ctx, inputText)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch returns one vector per text in a single request. Callers filter out
// empty texts first.
func (ollamaClient *Client) EmbedBatch(ctx context.Context, inputTexts []string) ([][]float32, error) {
	if len(inputTexts) == 0 {
		return nil, nil
	}

	embeddings, err := ollamaClient.embed(ctx, inputTexts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(inputTexts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(embeddings), len(inputTexts))
	}
	return embeddings, nil
}

func (ollamaClient *Client) embed(ctx context.Context, input any) ([][]float32, error) {
	jsonRequestBody, err := json.Marshal(embeddingRequest{Model: ollamaClient.modelName, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, ollamaClient.baseURL+"/api/embed", bytes.NewReader(jsonRequestBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := ollamaClient.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", httpResponse.StatusCode)
	}

	var parsedResponse embeddingResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&parsedResponse); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsedResponse.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return parsedResponse.Embeddings, nil
}
