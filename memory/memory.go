// Package memory estimates the training memory of a decoder-only transformer from
// its architecture: activations per layer (Korthikanti et al. 2022,
// https://arxiv.org/abs/2205.05198) plus parameters, gradients and optimizer state.
package memory

import (
	"strings"

	"github.com/alDuncanson/manifold/errs"

	"github.com/dustin/go-humanize"
)

// Recomputation is the activation checkpointing strategy.
type Recomputation string

const (
	RecomputeNone      Recomputation = "none"
	RecomputeSelective Recomputation = "selective"
	RecomputeFull      Recomputation = "full"
)

// ParseRecomputation resolves a recomputation mode name.
func ParseRecomputation(name string) (Recomputation, error) {
	mode := Recomputation(strings.ToLower(strings.TrimSpace(name)))
	switch mode {
	case RecomputeNone, RecomputeSelective, RecomputeFull:
		return mode, nil
	default:
		return "", errs.InvalidParameter("recomputation", name, "expected none, selective or full")
	}
}

// FFActivation is the feedforward non-linearity.
type FFActivation string

const (
	ActivationReLU   FFActivation = "relu"
	ActivationGELU   FFActivation = "gelu"
	ActivationSwiGLU FFActivation = "swiglu"
)

// ParseFFActivation resolves a feedforward activation name.
func ParseFFActivation(name string) (FFActivation, error) {
	activation := FFActivation(strings.ToLower(strings.TrimSpace(name)))
	switch activation {
	case ActivationReLU, ActivationGELU, ActivationSwiGLU:
		return activation, nil
	default:
		return "", errs.InvalidParameter("ff activation", name, "expected relu, gelu or swiglu")
	}
}

// Config describes the model and batch.
type Config struct {
	Heads         int64         `yaml:"heads"`         // a
	MicroBatch    int64         `yaml:"micro_batch"`   // b
	Hidden        int64         `yaml:"hidden"`        // h
	FFHidden      int64         `yaml:"ff_hidden"`     // h_ff, often 4h
	Layers        int64         `yaml:"layers"`        // L
	SeqLen        int64         `yaml:"seq_len"`       // s
	Vocab         int64         `yaml:"vocab"`         // v
	Mixed         bool          `yaml:"mixed"`         // bf16/fp16 activations and weights
	Recomputation Recomputation `yaml:"recomputation"`
	FFActivation  FFActivation  `yaml:"ff_activation"`
}

// Layer is the activation memory of one transformer layer without recomputation.
type Layer struct {
	Attention   int64
	Feedforward int64
	LayerNorm   int64
}

// Total sums the layer parts.
func (l Layer) Total() int64 { return l.Attention + l.Feedforward + l.LayerNorm }

// Activations is the activation memory breakdown in bytes.
type Activations struct {
	// Layer is the per-layer breakdown, identical for every layer.
	Layer Layer
	// PerLayer is what one layer actually keeps under the recomputation mode.
	PerLayer        int64
	Layers          int64
	InputDropout    int64
	OutputLayerNorm int64
	Projection      int64
	CrossEntropy    int64 // logits kept in fp32
}

// Total is L·PerLayer plus the embedding and output terms.
func (a Activations) Total() int64 {
	return a.Layers*a.PerLayer + a.InputDropout + a.OutputLayerNorm + a.Projection + a.CrossEntropy
}

func (c Config) validate() error {
	fields := []struct {
		name  string
		value int64
	}{
		{"heads", c.Heads}, {"micro batch", c.MicroBatch}, {"hidden", c.Hidden},
		{"ff hidden", c.FFHidden}, {"layers", c.Layers}, {"seq len", c.SeqLen}, {"vocab", c.Vocab},
	}
	for _, field := range fields {
		if field.value < 0 {
			return errs.InvalidParameter(field.name, field.value, "must be non-negative")
		}
	}
	if _, err := ParseRecomputation(string(c.Recomputation)); err != nil {
		return err
	}
	_, err := ParseFFActivation(string(c.FFActivation))
	return err
}

func bytesPerValue(mixed bool) int64 {
	if mixed {
		return 2
	}
	return 4
}

// ActivationMemory returns the activation breakdown for c.
func ActivationMemory(c Config) (Activations, error) {
	if err := c.validate(); err != nil {
		return Activations{}, err
	}

	a, b, h, hff, s, v := c.Heads, c.MicroBatch, c.Hidden, c.FFHidden, c.SeqLen, c.Vocab
	bpv := bytesPerValue(c.Mixed)
	sbh := s * b * h

	var layer Layer
	layer.Attention = sbh*(5*bpv+1) + (2*bpv+1)*a*s*s*b

	// Inputs of the two linear layers plus the boolean dropout mask
	layer.Feedforward = sbh*bpv + s*b*hff*bpv + sbh
	switch c.FFActivation {
	case ActivationGELU:
		layer.Feedforward += s * b * hff * bpv
	case ActivationSwiGLU:
		layer.Feedforward += 3 * s * b * hff * bpv
	}

	layer.LayerNorm = 2 * sbh * bpv

	out := Activations{
		Layer:           layer,
		Layers:          c.Layers,
		InputDropout:    sbh,
		OutputLayerNorm: sbh * bpv,
		Projection:      sbh * bpv,
		CrossEntropy:    s * b * v * 4,
	}

	switch c.Recomputation {
	case RecomputeNone:
		out.PerLayer = layer.Total()
	case RecomputeSelective:
		out.PerLayer = 34 * sbh
	case RecomputeFull:
		out.PerLayer = 2 * sbh
	}

	return out, nil
}

// ParamGradsOpt is the memory of weights, gradients and optimizer state.
type ParamGradsOpt struct {
	Parameters int64 // parameter count
	Weights    int64
	Gradients  int64
	Optimizer  int64
}

// Total sums weights, gradients and optimizer state.
func (p ParamGradsOpt) Total() int64 { return p.Weights + p.Gradients + p.Optimizer }

// ParamGradsOptMemory counts h(v+s) embedding parameters, 12h²+13h per layer and
// 2h for the final norm. optimizerBytes is the optimizer state per parameter (8 for
// Adam); mixed precision adds 4 more for the fp32 master weights.
func ParamGradsOptMemory(hidden, layers, seqLen, vocab, optimizerBytes int64, mixed bool) ParamGradsOpt {
	embedding := hidden * (vocab + seqLen)
	perLayer := 12*hidden*hidden + 13*hidden
	n := embedding + layers*perLayer + 2*hidden

	if mixed {
		optimizerBytes += 4
	}
	bpp := bytesPerValue(mixed)

	return ParamGradsOpt{
		Parameters: n,
		Weights:    bpp * n,
		Gradients:  bpp * n,
		Optimizer:  optimizerBytes * n,
	}
}

// FormatBytes renders a byte count with binary units, e.g. "1.5 GiB".
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
