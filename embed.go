package main

import (
	"fmt"

	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/embedding"
	"github.com/alDuncanson/manifold/huggingface"
	"github.com/alDuncanson/manifold/ollama"
	"github.com/alDuncanson/manifold/preload"
	"github.com/alDuncanson/manifold/qdrant"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const upsertBatchSize = 64

func (a *app) embedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed labeled texts and store them in Qdrant",
		Long: `embed reads labeled texts (the built-in word list by default, a CSV/JSON
file with --file, or a Hugging Face dataset with --hf-dataset), embeds them
with Ollama or the Hugging Face inference API, and upserts the vectors with
their text and label into the configured Qdrant collection. Steer them
afterwards with --qdrant.`,
		Args: cobra.NoArgs,
		RunE: a.runEmbed,
	}

	flags := cmd.Flags()
	flags.String("file", "", "CSV or JSON file of label/text rows")
	flags.String("hf-dataset", "", "Hugging Face dataset to read texts from")
	flags.String("hf-config", "default", "Hugging Face dataset config")
	flags.String("hf-split", "train", "Hugging Face dataset split")
	flags.String("hf-text", "text", "Hugging Face text column")
	flags.String("hf-label", "label", "Hugging Face label column")
	flags.Int("max-rows", 500, "maximum rows to read from Hugging Face")
	flags.String("provider", "ollama", "embedding provider: ollama or huggingface")
	flags.String("hf-model", "sentence-transformers/all-MiniLM-L6-v2", "Hugging Face embedding model")
	flags.Bool("reset", false, "delete the points already in the collection first")
	return cmd
}

func (a *app) runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	texts, err := a.loadTexts(cmd)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("nothing to embed: %w", errNoData)
	}

	embedder, err := a.newEmbedder(cmd)
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	ds, err := embedding.EmbedAll(ctx, embedder, texts, func(done, total int) {
		fmt.Fprintf(out, "\r[%d/%d]", done, total)
	})
	fmt.Fprintln(out)
	if err != nil {
		return err
	}

	services := a.cfg.Services
	vectorSize := uint64(ds.Dim())
	if vectorSize != services.VectorSize {
		log.Warn().Uint64("configured", services.VectorSize).Uint64("embedded", vectorSize).Msg("vector size differs from configuration")
	}

	client, err := qdrant.NewClient(ctx, services.QdrantAddress, services.QdrantCollection, vectorSize)
	if err != nil {
		return fmt.Errorf("connect to qdrant at %s: %w", services.QdrantAddress, err)
	}
	defer client.Close()

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		if err := clearCollection(cmd, client); err != nil {
			return err
		}
	}

	points := toPoints(ds)
	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))
		if err := client.Upsert(ctx, points[start:end]...); err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored %s vectors (%d classes) in %q\n",
		humanize.Comma(int64(len(points))), len(ds.Classes()), services.QdrantCollection)
	return nil
}

// loadTexts picks the text source from the flags.
func (a *app) loadTexts(cmd *cobra.Command) ([]dataset.LabeledText, error) {
	flags := cmd.Flags()
	file, _ := flags.GetString("file")
	hfDataset, _ := flags.GetString("hf-dataset")

	switch {
	case file != "":
		return dataset.LoadTexts(file)
	case hfDataset != "":
		config, _ := flags.GetString("hf-config")
		split, _ := flags.GetString("hf-split")
		textColumn, _ := flags.GetString("hf-text")
		labelColumn, _ := flags.GetString("hf-label")
		maxRows, _ := flags.GetInt("max-rows")
		log.Info().Str("dataset", hfDataset).Str("split", split).Int("max_rows", maxRows).Msg("fetching hugging face rows")
		return huggingface.NewClient().FetchLabeledTexts(cmd.Context(), hfDataset, config, split, textColumn, labelColumn, maxRows)
	default:
		return preload.LabeledWords(), nil
	}
}

func (a *app) newEmbedder(cmd *cobra.Command) (embedding.Embedder, error) {
	provider, _ := cmd.Flags().GetString("provider")
	switch provider {
	case "ollama":
		client := ollama.NewClient(a.cfg.Services.OllamaURL, a.cfg.Services.OllamaModel)
		log.Info().Str("url", a.cfg.Services.OllamaURL).Str("model", client.Model()).Msg("embedding with ollama")
		return client, nil
	case "huggingface":
		model, _ := cmd.Flags().GetString("hf-model")
		log.Info().Str("model", model).Msg("embedding with hugging face")
		return huggingface.NewEmbeddingsClient(model, ""), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, expected ollama or huggingface", provider)
	}
}

func clearCollection(cmd *cobra.Command, client *qdrant.Client) error {
	existing, err := client.GetAll(cmd.Context())
	if err != nil {
		return err
	}
	for _, point := range existing {
		if err := client.Delete(cmd.Context(), point.ID); err != nil {
			return err
		}
	}
	log.Info().Int("deleted", len(existing)).Msg("cleared collection")
	return nil
}

// toPoints gives every embedded row a fresh ID.
func toPoints(ds *dataset.Dataset) []qdrant.Point {
	points := make([]qdrant.Point, ds.Len())
	for i := range points {
		row := ds.Row(i)
		vector := make([]float32, len(row))
		for j, value := range row {
			vector[j] = float32(value)
		}
		points[i] = qdrant.Point{
			ID:     uuid.NewString(),
			Text:   ds.Text(i),
			Label:  ds.Label(i),
			Vector: vector,
		}
	}
	return points
}
