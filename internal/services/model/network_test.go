package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"TradeSage/internal/domain/models"
)

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Fatalf("got %v, want ErrModelUnavailable", err)
	}
}

func TestLoadAndPredictLinear(t *testing.T) {
	// Identity-ish single layer: output = 0.5*x0 + 0.5*x1 + 1.
	path := writeArtifact(t, `{
		"window": 2,
		"layers": [
			{"weights": [[0.5, 0.5]], "bias": [1], "activation": "linear"}
		]
	}`)

	n, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n.Window() != 2 {
		t.Fatalf("window = %d, want 2", n.Window())
	}

	got, err := n.Predict([]float64{2, 4})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got-4) > 1e-12 {
		t.Fatalf("predict = %v, want 4", got)
	}
}

func TestPredictTwoLayerRelu(t *testing.T) {
	path := writeArtifact(t, `{
		"window": 2,
		"layers": [
			{"weights": [[1, -1], [-1, 1]], "bias": [0, 0], "activation": "relu"},
			{"weights": [[1, 1]], "bias": [0.5], "activation": "linear"}
		]
	}`)

	n, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// relu([3-1, 1-3]) = [2, 0]; 2+0+0.5 = 2.5.
	got, err := n.Predict([]float64{3, 1})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got-2.5) > 1e-12 {
		t.Fatalf("predict = %v, want 2.5", got)
	}
}

func TestPredictWrongLength(t *testing.T) {
	path := writeArtifact(t, `{
		"window": 3,
		"layers": [{"weights": [[1, 1, 1]], "bias": [0], "activation": "linear"}]
	}`)
	n, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := n.Predict([]float64{1, 2}); err == nil {
		t.Fatal("expected error for short input")
	}
	if _, err := n.Predict([]float64{1, math.NaN(), 3}); err == nil {
		t.Fatal("expected error for NaN input")
	}
}

func TestLoadRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero window", `{"window": 0, "layers": [{"weights": [[1]], "bias": [0]}]}`},
		{"no layers", `{"window": 2, "layers": []}`},
		{"mismatched inputs", `{"window": 2, "layers": [{"weights": [[1]], "bias": [0]}]}`},
		{"bias length", `{"window": 1, "layers": [{"weights": [[1]], "bias": [0, 0]}]}`},
		{"multi output", `{"window": 1, "layers": [{"weights": [[1], [1]], "bias": [0, 0]}]}`},
		{"bad activation", `{"window": 1, "layers": [{"weights": [[1]], "bias": [0], "activation": "swish"}]}`},
	}
	for _, tt := range tests {
		if _, err := Load(writeArtifact(t, tt.body)); err == nil {
			t.Fatalf("%s: expected load error", tt.name)
		}
	}
}

func TestScaleParamsFromArtifact(t *testing.T) {
	path := writeArtifact(t, `{
		"window": 1,
		"layers": [{"weights": [[1]], "bias": [0], "activation": "linear"}],
		"scaling": {"min": 10, "max": 20}
	}`)
	n, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, ok := n.ScaleParams()
	if !ok {
		t.Fatal("expected scaling params")
	}
	if p.Min != 10 || p.Max != 20 {
		t.Fatalf("params = %+v", p)
	}
}
