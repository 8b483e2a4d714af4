package memory

import (
	"sort"

	"github.com/alDuncanson/manifold/errs"
)

// DefaultOptimizerBytes is the Adam state per parameter.
const DefaultOptimizerBytes = 8

var presets = map[string]Config{
	"Tiny": {Heads: 16, MicroBatch: 3, Hidden: 1024, FFHidden: 4096, Layers: 1, SeqLen: 7, Vocab: 30522,
		Mixed: true, Recomputation: RecomputeNone, FFActivation: ActivationGELU},
	"8B": {Heads: 32, MicroBatch: 32, Hidden: 4096, FFHidden: 16384, Layers: 32, SeqLen: 256, Vocab: 30522,
		Mixed: true, Recomputation: RecomputeNone, FFActivation: ActivationSwiGLU},
	"70B": {Heads: 64, MicroBatch: 32, Hidden: 8192, FFHidden: 32768, Layers: 80, SeqLen: 256, Vocab: 30522,
		Mixed: true, Recomputation: RecomputeNone, FFActivation: ActivationSwiGLU},
	"405B": {Heads: 128, MicroBatch: 32, Hidden: 16384, FFHidden: 65536, Layers: 126, SeqLen: 256, Vocab: 30522,
		Mixed: true, Recomputation: RecomputeNone, FFActivation: ActivationSwiGLU},
}

// Preset returns a named model configuration.
func Preset(name string) (Config, error) {
	config, ok := presets[name]
	if !ok {
		return Config{}, errs.InvalidParameter("preset", name, "unknown preset")
	}
	return config, nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
