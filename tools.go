package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alDuncanson/manifold/banner"
	"github.com/alDuncanson/manifold/markdown"
	"github.com/alDuncanson/manifold/memory"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func memoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Estimate transformer training memory",
		Long: fmt.Sprintf(`memory breaks down the activation memory of a transformer forward pass and
the memory of its weights, gradients and optimizer state.

Presets: %s. A YAML --file overrides the preset, and flags override both.`,
			strings.Join(memory.PresetNames(), ", ")),
		Args: cobra.NoArgs,
		RunE: runMemory,
	}

	flags := cmd.Flags()
	flags.String("preset", "Tiny", "model preset")
	flags.String("file", "", "YAML model configuration")
	flags.String("recomputation", "", "none, selective or full")
	flags.String("ff-activation", "", "relu, gelu or swiglu")
	flags.Int64("micro-batch", 0, "micro batch size")
	flags.Int64("seq-len", 0, "sequence length")
	flags.Int64("layers", 0, "number of layers")
	flags.Bool("mixed", true, "bf16/fp16 activations and weights")
	flags.Int64("optimizer-bytes", memory.DefaultOptimizerBytes, "optimizer state bytes per parameter")
	return cmd
}

func runMemory(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	preset, _ := flags.GetString("preset")
	config, err := memory.Preset(preset)
	if err != nil {
		return err
	}

	if path, _ := flags.GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if flags.Changed("recomputation") {
		name, _ := flags.GetString("recomputation")
		if config.Recomputation, err = memory.ParseRecomputation(name); err != nil {
			return err
		}
	}
	if flags.Changed("ff-activation") {
		name, _ := flags.GetString("ff-activation")
		if config.FFActivation, err = memory.ParseFFActivation(name); err != nil {
			return err
		}
	}
	if flags.Changed("micro-batch") {
		config.MicroBatch, _ = flags.GetInt64("micro-batch")
	}
	if flags.Changed("seq-len") {
		config.SeqLen, _ = flags.GetInt64("seq-len")
	}
	if flags.Changed("layers") {
		config.Layers, _ = flags.GetInt64("layers")
	}
	if flags.Changed("mixed") {
		config.Mixed, _ = flags.GetBool("mixed")
	}

	activations, err := memory.ActivationMemory(config)
	if err != nil {
		return err
	}
	optimizerBytes, _ := flags.GetInt64("optimizer-bytes")
	weights := memory.ParamGradsOptMemory(config.Hidden, config.Layers, config.SeqLen, config.Vocab, optimizerBytes, config.Mixed)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Component", "Memory"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	rows := []struct {
		name  string
		bytes int64
	}{
		{"attention / layer", activations.Layer.Attention},
		{"feedforward / layer", activations.Layer.Feedforward},
		{"layer norm / layer", activations.Layer.LayerNorm},
		{"kept / layer (" + string(config.Recomputation) + ")", activations.PerLayer},
		{"input dropout", activations.InputDropout},
		{"output layer norm", activations.OutputLayerNorm},
		{"output projection", activations.Projection},
		{"cross entropy", activations.CrossEntropy},
		{"activations", activations.Total()},
		{"weights", weights.Weights},
		{"gradients", weights.Gradients},
		{"optimizer", weights.Optimizer},
		{"total", activations.Total() + weights.Total()},
	}
	for _, row := range rows {
		table.Append([]string{row.name, memory.FormatBytes(row.bytes)})
	}
	table.SetFooter([]string{"parameters", strconv.FormatInt(weights.Parameters, 10)})
	table.Render()
	return nil
}

func convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <file.md>...",
		Short: "Render Markdown files to HTML next to the source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				output, err := markdown.ConvertFile(path)
				if err != nil {
					return err
				}
				log.Debug().Str("source", path).Str("output", output).Msg("converted")
				fmt.Fprintln(cmd.OutOrStdout(), output)
			}
			return nil
		},
	}
}

func bannerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banner",
		Short: "Draw the dot banner in the terminal or as SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			n, _ := flags.GetInt("dots")
			seed, _ := flags.GetInt64("seed")
			dots := banner.Generate(n, seed)
			out := cmd.OutOrStdout()

			if svg, _ := flags.GetBool("svg"); svg {
				pixelWidth, _ := flags.GetInt("pixel-width")
				fmt.Fprint(out, banner.SVG(dots, pixelWidth))
				return nil
			}

			columns, _ := flags.GetInt("width")
			rows, _ := flags.GetInt("height")
			fmt.Fprintln(out, banner.Render(dots, columns, rows))

			counts := banner.Count(dots)
			legend := make([]string, len(banner.Classes))
			for i, class := range banner.Classes {
				legend[i] = fmt.Sprintf("%s: %d", class, counts[i])
			}
			fmt.Fprintln(out, strings.Join(legend, "  "))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("dots", banner.DefaultDots, "number of dots")
	flags.Int64("seed", 0, "random seed")
	flags.Int("width", 72, "terminal columns")
	flags.Int("height", 12, "terminal rows")
	flags.Bool("svg", false, "print an SVG fragment instead")
	flags.Int("pixel-width", 900, "SVG width in pixels")
	return cmd
}
