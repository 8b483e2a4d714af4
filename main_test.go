package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "manifold dev\n", out)
}

func TestSteerCommandJSON(t *testing.T) {
	out, err := execute(t, "steer", "--steps", "3", "--index", "7", "--json")
	require.NoError(t, err)

	var report steerJSON
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "pca", report.Method)
	assert.Greater(t, report.Radius, 0.0)
	require.Len(t, report.Steps, 3)
	assert.Len(t, report.Start, 10)

	assert.Equal(t, report.Start, report.Steps[0].PreviousPoint)
	for i, step := range report.Steps {
		assert.Len(t, step.Point, 10)
		assert.Len(t, step.SteeringVector, 10)
		assert.Equal(t, 0.1, step.StepSize)
		assert.Equal(t, "counterclockwise", step.Direction)
		assert.Equal(t, 0.3, step.Strength)
		if i > 0 {
			assert.Equal(t, report.Steps[i-1].Point, step.PreviousPoint)
		}
	}
}

func TestSteerCommandJSONWithoutSteps(t *testing.T) {
	out, err := execute(t, "steer", "--steps", "0", "--index", "3", "--json")
	require.NoError(t, err)

	var report steerJSON
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Start, 10)
	assert.Empty(t, report.Steps)
}

func TestSteerHelpWarnsAboutApproximateInverses(t *testing.T) {
	for _, command := range []string{"steer", "view"} {
		out, err := execute(t, command, "--help")
		require.NoError(t, err)
		assert.Contains(t, out, "Only PCA has an exact inverse", command)
		assert.Contains(t, out, "with UMAP a step may even move the wrong way", command)
	}
}

func TestSteerCommandTable(t *testing.T) {
	out, err := execute(t, "steer", "--steps", "2", "--direction", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "PROJECTED")
	// start row plus one per step
	assert.Equal(t, 3, strings.Count(out, ")"))
}

func TestSteerCommandRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "steer", "--method", "tsne")
	assert.Error(t, err)

	_, err = execute(t, "steer", "--strength", "2")
	assert.Error(t, err)

	_, err = execute(t, "steer", "--index", "1000")
	assert.Error(t, err)
}

func TestSteerCommandFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	var b strings.Builder
	b.WriteString("label,x,y,z\n")
	for label := 0; label < 3; label++ {
		for k := 0; k < 4; k++ {
			angle := float64(label)*2*math.Pi/3 + 0.05*float64(k)
			fmt.Fprintf(&b, "%d,%.6f,%.6f,%.6f\n", label, 5*math.Cos(angle), 5*math.Sin(angle), 0.01*float64(k))
		}
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	out, err := execute(t, "steer", "--input", path, "--steps", "1", "--json")
	require.NoError(t, err)

	var report steerJSON
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Steps, 1)
	assert.Len(t, report.Steps[0].Point, 3)
}

func TestFitCommand(t *testing.T) {
	out, err := execute(t, "fit", "--clusters", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "method:        pca")
	assert.Contains(t, out, "exact inverse: true")
	assert.Contains(t, out, "explained:")
	assert.Contains(t, out, "circle:")
	assert.Contains(t, out, "DISTANCE")
	assert.Equal(t, 4, strings.Count(out, "| ("), "one row per cluster")
}

func TestMemoryCommand(t *testing.T) {
	out, err := execute(t, "memory")
	require.NoError(t, err)

	config, err := memory.Preset("Tiny")
	require.NoError(t, err)
	activations, err := memory.ActivationMemory(config)
	require.NoError(t, err)

	assert.Contains(t, out, "attention / layer")
	assert.Contains(t, out, "kept / layer (none)")
	assert.Contains(t, out, memory.FormatBytes(activations.Total()))
	assert.Contains(t, out, "PARAMETERS")
}

func TestMemoryCommandOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layers: 4\nmixed: false\n"), 0o644))

	out, err := execute(t, "memory", "--file", path, "--recomputation", "full")
	require.NoError(t, err)
	assert.Contains(t, out, "kept / layer (full)")

	_, err = execute(t, "memory", "--preset", "1T")
	assert.Error(t, err)

	_, err = execute(t, "memory", "--ff-activation", "tanh")
	assert.Error(t, err)
}

func TestConvertCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\nsome *text*\n"), 0o644))

	out, err := execute(t, "convert", path)
	require.NoError(t, err)

	output := strings.TrimSuffix(path, ".md") + ".html"
	assert.Equal(t, output+"\n", out)
	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Notes</h1>")
	assert.Contains(t, string(html), "<em>text</em>")

	_, err = execute(t, "convert")
	assert.Error(t, err)
}

func TestBannerCommand(t *testing.T) {
	out, err := execute(t, "banner", "--svg", "--dots", "25", "--seed", "7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Equal(t, 25, strings.Count(out, "<circle"))

	out, err = execute(t, "banner", "--dots", "40", "--width", "30", "--height", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "smol dot: ")
	assert.Contains(t, out, "biiig dot: ")
}

func TestToPoints(t *testing.T) {
	ds, err := dataset.New([][]float64{{0.5, -1}, {2, 0.25}}, []int{1, 0}, []string{"cat", "dog"})
	require.NoError(t, err)

	points := toPoints(ds)
	require.Len(t, points, 2)
	assert.Equal(t, "cat", points[0].Text)
	assert.Equal(t, 1, points[0].Label)
	assert.Equal(t, []float32{0.5, -1}, points[0].Vector)
	assert.Equal(t, []float32{2, 0.25}, points[1].Vector)
	assert.NotEqual(t, points[0].ID, points[1].ID)
	assert.Len(t, points[0].ID, 36)
}

func TestEmbedRejectsUnknownProvider(t *testing.T) {
	_, err := execute(t, "embed", "--provider", "word2vec")
	assert.ErrorContains(t, err, "unknown provider")
}
