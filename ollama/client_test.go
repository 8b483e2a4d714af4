package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var request embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "nomic-embed-text", request.Model)
		assert.Equal(t, "violin", request.Input)

		_ = json.NewEncoder(w).Encode(embeddingResponse{Embeddings: [][]float32{{0.25, -1}}})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "nomic-embed-text")
	vector, err := client.Embed(context.Background(), "violin")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -1}, vector)
}

func TestEmbedBatch(t *testing.T) {
	// every response carries two vectors, whatever was sent
	var mu sync.Mutex
	var inputs []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		mu.Lock()
		inputs = append(inputs, request.Input)
		mu.Unlock()

		_ = json.NewEncoder(w).Encode(embeddingResponse{Embeddings: [][]float32{{1, 0}, {0, 1}}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "nomic-embed-text")
	vectors, err := client.EmbedBatch(context.Background(), []string{"cat", "dog"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)

	_, err = client.EmbedBatch(context.Background(), []string{"cat", "dog", "eel"})
	assert.ErrorContains(t, err, "got 2 embeddings for 3 texts")

	vectors, err = client.EmbedBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{[]any{"cat", "dog"}, []any{"cat", "dog", "eel"}}, inputs, "an empty batch sends nothing")
}

func TestEmbed_EmptyTextSkipsRequest(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "nomic-embed-text")
	vector, err := client.Embed(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, vector)
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name:    "status",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
			want:    "unexpected status: 404",
		},
		{
			name:    "no embeddings",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"embeddings":[]}`)) },
			want:    "no embeddings returned",
		},
		{
			name:    "garbage",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`not json`)) },
			want:    "decode response",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			_, err := NewClient(server.URL, "m").Embed(context.Background(), "text")
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
