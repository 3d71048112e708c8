package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"TradeSage/internal/domain/models"
	domsvc "TradeSage/internal/domain/service"
	"TradeSage/internal/services/scale"
)

// artifact is the on-disk JSON layout of an exported price model.
type artifact struct {
	Window  int             `json:"window"`
	Layers  []layerArtifact `json:"layers"`
	Scaling *scalingParams  `json:"scaling,omitempty"`
}

type layerArtifact struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

type scalingParams struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type layer struct {
	weights  *mat.Dense
	bias     *mat.VecDense
	activate func(float64) float64
}

// Network is a feed-forward sequence model restored from an artifact file.
// All fields are immutable after Load, so a single instance is safe for
// concurrent Predict calls.
type Network struct {
	window  int
	layers  []layer
	scaling *scale.Params
}

var _ domsvc.SequenceModel = (*Network)(nil)

// Load reads a model artifact from disk. A missing file is reported as
// models.ErrModelUnavailable so callers can degrade instead of failing.
func Load(path string) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("model artifact %s: %w", path, models.ErrModelUnavailable)
		}
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return build(a)
}

func build(a artifact) (*Network, error) {
	if a.Window <= 0 {
		return nil, fmt.Errorf("model artifact: invalid window %d", a.Window)
	}
	if len(a.Layers) == 0 {
		return nil, fmt.Errorf("model artifact: no layers")
	}

	n := &Network{window: a.Window}
	inDim := a.Window
	for i, la := range a.Layers {
		rows := len(la.Weights)
		if rows == 0 {
			return nil, fmt.Errorf("model artifact: layer %d has no weights", i)
		}
		cols := len(la.Weights[0])
		if cols != inDim {
			return nil, fmt.Errorf("model artifact: layer %d expects %d inputs, got %d", i, cols, inDim)
		}
		if len(la.Bias) != rows {
			return nil, fmt.Errorf("model artifact: layer %d bias length %d, want %d", i, len(la.Bias), rows)
		}

		flat := make([]float64, 0, rows*cols)
		for r, row := range la.Weights {
			if len(row) != cols {
				return nil, fmt.Errorf("model artifact: layer %d row %d ragged", i, r)
			}
			flat = append(flat, row...)
		}

		act, err := activation(la.Activation)
		if err != nil {
			return nil, fmt.Errorf("model artifact: layer %d: %w", i, err)
		}
		n.layers = append(n.layers, layer{
			weights:  mat.NewDense(rows, cols, flat),
			bias:     mat.NewVecDense(rows, append([]float64(nil), la.Bias...)),
			activate: act,
		})
		inDim = rows
	}
	if inDim != 1 {
		return nil, fmt.Errorf("model artifact: final layer emits %d values, want 1", inDim)
	}

	if a.Scaling != nil {
		n.scaling = &scale.Params{Min: a.Scaling.Min, Max: a.Scaling.Max}
	}
	return n, nil
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "relu":
		return func(x float64) float64 { return math.Max(0, x) }, nil
	case "tanh":
		return math.Tanh, nil
	case "sigmoid":
		return func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }, nil
	case "linear", "":
		return func(x float64) float64 { return x }, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// Window reports how many trailing values Predict expects.
func (n *Network) Window() int { return n.window }

// ScaleParams returns the scaling range exported alongside the weights,
// when the artifact carries one.
func (n *Network) ScaleParams() (scale.Params, bool) {
	if n.scaling == nil {
		return scale.Params{}, false
	}
	return *n.scaling, true
}

// Predict runs the network over exactly Window() values and returns the
// single output scalar.
func (n *Network) Predict(seq []float64) (float64, error) {
	if len(seq) != n.window {
		return 0, fmt.Errorf("predict: got %d values, want %d", len(seq), n.window)
	}
	for i, v := range seq {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("predict: value %d is not finite", i)
		}
	}

	x := mat.NewVecDense(n.window, append([]float64(nil), seq...))
	for _, l := range n.layers {
		rows, _ := l.weights.Dims()
		y := mat.NewVecDense(rows, nil)
		y.MulVec(l.weights, x)
		y.AddVec(y, l.bias)
		for i := 0; i < rows; i++ {
			y.SetVec(i, l.activate(y.AtVec(i)))
		}
		x = y
	}
	return x.AtVec(0), nil
}
