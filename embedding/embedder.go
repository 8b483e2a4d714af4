// Package embedding defines the interface for text embedding providers.
// It allows the application to use different embedding backends (Ollama, Hugging Face, etc.)
// interchangeably, and turns labeled texts into a steerable dataset.
package embedding

import (
	"context"
	"fmt"

	"github.com/alDuncanson/manifold/dataset"

	"github.com/rs/zerolog/log"
)

// BatchSize is the number of texts EmbedAll sends per request to a BatchEmbedder.
const BatchSize = 32

// Embedder is the interface that text embedding providers must implement.
type Embedder interface {
	// Embed converts the provided text into a vector embedding.
	// If the input text is empty, Embed should return nil without error.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is an Embedder that can embed several non-empty texts in one
// request, returning the vectors in input order.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ProgressFunc is called after every embedded text or batch with the number of
// texts handled so far.
type ProgressFunc func(done, total int)

// EmbedAll embeds every text and returns them as a labeled dataset. Empty texts
// are skipped. All vectors must share one dimension. A BatchEmbedder is called
// with up to BatchSize texts at a time.
func EmbedAll(ctx context.Context, embedder Embedder, texts []dataset.LabeledText, progress ProgressFunc) (*dataset.Dataset, error) {
	chunk := 1
	batcher, batched := embedder.(BatchEmbedder)
	if batched {
		chunk = BatchSize
	}

	rows := make([][]float64, 0, len(texts))
	labels := make([]int, 0, len(texts))
	kept := make([]string, 0, len(texts))

	for start := 0; start < len(texts); start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+chunk, len(texts))

		var vectors [][]float32
		var err error
		if batched {
			vectors, err = embedBatch(ctx, batcher, texts[start:end])
		} else {
			vectors, err = embedOne(ctx, embedder, texts[start])
		}
		if err != nil {
			return nil, err
		}
		if progress != nil {
			progress(end, len(texts))
		}

		for i, vector := range vectors {
			item := texts[start+i]
			if vector == nil {
				log.Debug().Int("index", start+i).Msg("skipping empty text")
				continue
			}
			rows = append(rows, Float64s(vector))
			labels = append(labels, item.Label)
			kept = append(kept, item.Text)
		}
	}

	return dataset.New(rows, labels, kept)
}

func embedOne(ctx context.Context, embedder Embedder, item dataset.LabeledText) ([][]float32, error) {
	vector, err := embedder.Embed(ctx, item.Text)
	if err != nil {
		return nil, fmt.Errorf("embed %q: %w", item.Text, err)
	}
	return [][]float32{vector}, nil
}

// embedBatch sends the non-empty texts of items in one request and returns a
// vector per item, nil for the empty ones.
func embedBatch(ctx context.Context, batcher BatchEmbedder, items []dataset.LabeledText) ([][]float32, error) {
	vectors := make([][]float32, len(items))
	var inputs []string
	var positions []int
	for i, item := range items {
		if item.Text != "" {
			inputs = append(inputs, item.Text)
			positions = append(positions, i)
		}
	}
	if len(inputs) == 0 {
		return vectors, nil
	}

	embedded, err := batcher.EmbedBatch(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("embed batch starting %q: %w", inputs[0], err)
	}
	if len(embedded) != len(inputs) {
		return nil, fmt.Errorf("embed batch starting %q: got %d vectors for %d texts", inputs[0], len(embedded), len(inputs))
	}
	for j, position := range positions {
		vectors[position] = embedded[j]
	}
	return vectors, nil
}

// Float64s widens an embedding vector for the numerical packages.
func Float64s(vector []float32) []float64 {
	out := make([]float64, len(vector))
	for i, value := range vector {
		out[i] = float64(value)
	}
	return out
}
