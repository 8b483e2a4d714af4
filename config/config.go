// Package config holds manifold's runtime configuration.
//
// Configuration can be loaded from:
//   - Programmatic defaults
//   - YAML configuration file
//   - Environment variables (applied on top of either)
//
// Environment Variables:
//
//	MANIFOLD_PROJECTION_METHOD      - pca, kernel_pca or umap (default: pca)
//	MANIFOLD_PROJECTION_STANDARDIZE - z-score features before fitting (default: false)
//	MANIFOLD_PROJECTION_KERNEL      - kernel for kernel_pca (default: rbf)
//	MANIFOLD_PROJECTION_INVERSE     - kernel_pca inverse strategy: surrogate or ridge
//	MANIFOLD_STEERING_STEP_SIZE     - radians per step (default: 0.1)
//	MANIFOLD_STEERING_DIRECTION     - 1 or -1 (default: 1)
//	MANIFOLD_STEERING_STRENGTH      - fraction of the steering vector applied (default: 0.3)
//	MANIFOLD_STEERING_STEPS         - number of steps (default: 10)
//	MANIFOLD_SEED                   - seed for synthetic data and UMAP (default: 42)
//	MANIFOLD_OLLAMA_URL             - Ollama endpoint (default: http://localhost:11434)
//	MANIFOLD_OLLAMA_MODEL           - embedding model (default: nomic-embed-text)
//	MANIFOLD_QDRANT_ADDRESS         - Qdrant gRPC address (default: localhost:6334)
//	MANIFOLD_QDRANT_COLLECTION      - Qdrant collection (default: embeddings)
//	MANIFOLD_LOG_LEVEL              - zerolog level (default: info)
//	MANIFOLD_METRICS_ADDR           - serve prometheus metrics on this address when set
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/errs"
	"github.com/alDuncanson/manifold/projection"
	"github.com/alDuncanson/manifold/steering"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the full manifold configuration.
type Config struct {
	Projection ProjectionConfig `yaml:"projection"`
	Steering   SteeringConfig   `yaml:"steering"`
	Synthetic  SyntheticConfig  `yaml:"synthetic"`
	Services   ServicesConfig   `yaml:"services"`

	// LogLevel is a zerolog level name
	LogLevel string `yaml:"log_level"`
	// MetricsAddr enables the /metrics endpoint when non-empty
	MetricsAddr string `yaml:"metrics_addr"`
}

// ProjectionConfig selects and tunes the reducer.
type ProjectionConfig struct {
	Method      string  `yaml:"method"`
	Standardize bool    `yaml:"standardize"`
	Kernel      string  `yaml:"kernel"`
	Gamma       float64 `yaml:"gamma"`
	Degree      int     `yaml:"degree"`
	Coef0       float64 `yaml:"coef0"`
	Alpha       float64 `yaml:"alpha"`
	Inverse     string  `yaml:"inverse"`

	UMAP UMAPConfig `yaml:"umap"`
}

// UMAPConfig mirrors projection.UMAP.
type UMAPConfig struct {
	Neighbors          int     `yaml:"neighbors"`
	MinDist            float64 `yaml:"min_dist"`
	Spread             float64 `yaml:"spread"`
	Epochs             int     `yaml:"epochs"`
	LearningRate       float64 `yaml:"learning_rate"`
	NegativeSampleRate float64 `yaml:"negative_sample_rate"`
	Seed               int64   `yaml:"seed"`
}

// SteeringConfig holds the default steering parameters.
type SteeringConfig struct {
	StepSize  float64 `yaml:"step_size"`
	Direction int     `yaml:"direction"`
	Strength  float64 `yaml:"strength"`
	Steps     int     `yaml:"steps"`
}

// SyntheticConfig mirrors dataset.CircularClusters.
type SyntheticConfig struct {
	Samples    int     `yaml:"samples"`
	Clusters   int     `yaml:"clusters"`
	Dimension  int     `yaml:"dimension"`
	Radius     float64 `yaml:"radius"`
	ClusterStd float64 `yaml:"cluster_std"`
	Seed       int64   `yaml:"seed"`
}

// ServicesConfig addresses the embedding collaborators.
type ServicesConfig struct {
	OllamaURL        string `yaml:"ollama_url"`
	OllamaModel      string `yaml:"ollama_model"`
	QdrantAddress    string `yaml:"qdrant_address"`
	QdrantCollection string `yaml:"qdrant_collection"`
	VectorSize       uint64 `yaml:"vector_size"`
}

// DefaultConfig returns the configuration used when nothing else is given.
func DefaultConfig() *Config {
	kernel := projection.DefaultKernelPCA()
	umap := projection.DefaultUMAP()
	params := steering.DefaultParams()
	synthetic := dataset.DefaultCircularClusters()

	return &Config{
		Projection: ProjectionConfig{
			Method:  string(projection.MethodPCA),
			Kernel:  string(kernel.Kernel),
			Degree:  kernel.Degree,
			Coef0:   kernel.Coef0,
			Alpha:   kernel.Alpha,
			Inverse: string(kernel.Inverse),
			UMAP: UMAPConfig{
				Neighbors:          umap.NNeighbors,
				MinDist:            umap.MinDist,
				Spread:             umap.Spread,
				Epochs:             umap.NEpochs,
				LearningRate:       umap.LearningRate,
				NegativeSampleRate: umap.NegativeSampleRate,
				Seed:               umap.RandomSeed,
			},
		},
		Steering: SteeringConfig{
			StepSize:  params.StepSize,
			Direction: int(params.Direction),
			Strength:  params.Strength,
			Steps:     10,
		},
		Synthetic: SyntheticConfig{
			Samples:    synthetic.Samples,
			Clusters:   synthetic.Clusters,
			Dimension:  synthetic.Dimension,
			Radius:     synthetic.Radius,
			ClusterStd: synthetic.ClusterStd,
			Seed:       synthetic.Seed,
		},
		Services: ServicesConfig{
			OllamaURL:        "http://localhost:11434",
			OllamaModel:      "nomic-embed-text",
			QdrantAddress:    "localhost:6334",
			QdrantCollection: "embeddings",
			VectorSize:       768,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML file over the defaults, so omitted keys keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads config from file, or returns the defaults if path is
// empty or the file doesn't exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// ApplyEnv overrides fields from MANIFOLD_* environment variables. Unparseable
// numeric values are reported rather than ignored.
func (cfg *Config) ApplyEnv() error {
	strs := map[string]*string{
		"MANIFOLD_PROJECTION_METHOD":  &cfg.Projection.Method,
		"MANIFOLD_PROJECTION_KERNEL":  &cfg.Projection.Kernel,
		"MANIFOLD_PROJECTION_INVERSE": &cfg.Projection.Inverse,
		"MANIFOLD_OLLAMA_URL":         &cfg.Services.OllamaURL,
		"MANIFOLD_OLLAMA_MODEL":       &cfg.Services.OllamaModel,
		"MANIFOLD_QDRANT_ADDRESS":     &cfg.Services.QdrantAddress,
		"MANIFOLD_QDRANT_COLLECTION":  &cfg.Services.QdrantCollection,
		"MANIFOLD_LOG_LEVEL":          &cfg.LogLevel,
		"MANIFOLD_METRICS_ADDR":       &cfg.MetricsAddr,
	}
	for key, field := range strs {
		if val := os.Getenv(key); val != "" {
			*field = val
		}
	}

	if val := os.Getenv("MANIFOLD_PROJECTION_STANDARDIZE"); val != "" {
		cfg.Projection.Standardize = parseBool(val, cfg.Projection.Standardize)
	}

	floatsByKey := map[string]*float64{
		"MANIFOLD_STEERING_STEP_SIZE": &cfg.Steering.StepSize,
		"MANIFOLD_STEERING_STRENGTH":  &cfg.Steering.Strength,
	}
	for key, field := range floatsByKey {
		if val := os.Getenv(key); val != "" {
			parsed, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*field = parsed
		}
	}

	intsByKey := map[string]*int{
		"MANIFOLD_STEERING_DIRECTION": &cfg.Steering.Direction,
		"MANIFOLD_STEERING_STEPS":     &cfg.Steering.Steps,
	}
	for key, field := range intsByKey {
		if val := os.Getenv(key); val != "" {
			parsed, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*field = parsed
		}
	}

	if val := os.Getenv("MANIFOLD_SEED"); val != "" {
		seed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("MANIFOLD_SEED: %w", err)
		}
		cfg.Synthetic.Seed = seed
		cfg.Projection.UMAP.Seed = seed
	}

	return nil
}

// parseBool parses a boolean from string with a default value.
func parseBool(s string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultVal
	}
}

// Validate checks every setting that can be checked without building anything.
func (cfg *Config) Validate() error {
	if _, err := projection.ParseMethod(cfg.Projection.Method); err != nil {
		return err
	}
	if _, err := projection.ParseKernel(cfg.Projection.Kernel); err != nil {
		return err
	}
	if _, err := projection.ParseInverseStrategy(cfg.Projection.Inverse); err != nil {
		return err
	}
	if err := cfg.Params().Validate(); err != nil {
		return err
	}
	if cfg.Steering.Steps < 0 {
		return errs.InvalidParameter("steps", cfg.Steering.Steps, "must be non-negative")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Reducer builds the configured projection.Reducer.
func (p ProjectionConfig) Reducer() (projection.Reducer, error) {
	method, err := projection.ParseMethod(p.Method)
	if err != nil {
		return nil, err
	}

	switch method {
	case projection.MethodKernelPCA:
		kernel, err := projection.ParseKernel(p.Kernel)
		if err != nil {
			return nil, err
		}
		inverse, err := projection.ParseInverseStrategy(p.Inverse)
		if err != nil {
			return nil, err
		}
		return projection.KernelPCA{
			Kernel:      kernel,
			Gamma:       p.Gamma,
			Degree:      p.Degree,
			Coef0:       p.Coef0,
			Alpha:       p.Alpha,
			Standardize: p.Standardize,
			Inverse:     inverse,
		}, nil
	case projection.MethodUMAP:
		return projection.UMAP{
			NNeighbors:         p.UMAP.Neighbors,
			MinDist:            p.UMAP.MinDist,
			Spread:             p.UMAP.Spread,
			NEpochs:            p.UMAP.Epochs,
			LearningRate:       p.UMAP.LearningRate,
			NegativeSampleRate: p.UMAP.NegativeSampleRate,
			RandomSeed:         p.UMAP.Seed,
			Standardize:        p.Standardize,
		}, nil
	default:
		return projection.PCA{Standardize: p.Standardize}, nil
	}
}

// Params converts the steering section to steering.Params.
func (cfg *Config) Params() steering.Params {
	return steering.Params{
		StepSize:  cfg.Steering.StepSize,
		Direction: steering.Direction(cfg.Steering.Direction),
		Strength:  cfg.Steering.Strength,
	}
}

// CircularClusters converts the synthetic section to the dataset generator config.
func (cfg *Config) CircularClusters() dataset.CircularClusters {
	return dataset.CircularClusters{
		Samples:    cfg.Synthetic.Samples,
		Clusters:   cfg.Synthetic.Clusters,
		Dimension:  cfg.Synthetic.Dimension,
		Radius:     cfg.Synthetic.Radius,
		ClusterStd: cfg.Synthetic.ClusterStd,
		Seed:       cfg.Synthetic.Seed,
	}
}
