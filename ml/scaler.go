package ml

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyTrainingSet = errors.New("training set is empty")
	ErrNotFitted        = errors.New("model is not fitted")
)

// StandardScaler centers each column on its mean and divides by its
// population standard deviation. Constant columns are divided by 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	width := len(x[0])
	mean := make([]float64, width)
	for _, row := range x {
		if len(row) != width {
			return fmt.Errorf("ragged row: got %d columns, want %d", len(row), width)
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(x))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, width)
	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	s.Mean, s.Scale = mean, scale
	return nil
}

func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("row has %d columns, scaler expects %d", len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		t, err := s.TransformRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
