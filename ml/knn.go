package ml

import (
	"fmt"
	"sort"
)

// KNNClassifier predicts the majority label of the K nearest training rows
// by Euclidean distance.
type KNNClassifier struct {
	K      int         `json:"k"`
	X      [][]float64 `json:"x"`
	Labels []string    `json:"labels"`
}

func NewKNNClassifier(k int) *KNNClassifier {
	return &KNNClassifier{K: k}
}

func (m *KNNClassifier) Fit(x [][]float64, y []string) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d rows and %d labels", len(x), len(y))
	}
	if m.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", m.K)
	}
	m.X = cloneRows(x)
	m.Labels = append([]string(nil), y...)
	return nil
}

func (m *KNNClassifier) Predict(row []float64) (string, error) {
	if len(m.X) == 0 {
		return "", ErrNotFitted
	}
	if len(row) != len(m.X[0]) {
		return "", fmt.Errorf("row has %d columns, model expects %d", len(row), len(m.X[0]))
	}

	type neighbor struct {
		dist  float64
		index int
	}
	neighbors := make([]neighbor, len(m.X))
	for i, train := range m.X {
		neighbors[i] = neighbor{dist: squaredDistance(row, train), index: i}
	}
	// stable on index so equal distances resolve to the earlier training row
	sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })

	k := m.K
	if k > len(neighbors) {
		k = len(neighbors)
	}
	votes := make(map[string]float64, k)
	for _, n := range neighbors[:k] {
		votes[m.Labels[n.index]]++
	}
	return argmax(votes), nil
}

func (m *KNNClassifier) PredictAll(x [][]float64) ([]string, error) {
	out := make([]string, len(x))
	for i, row := range x {
		p, err := m.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// argmax returns the key with the highest score; ties go to the smallest key.
func argmax(scores map[string]float64) string {
	best, bestScore, first := "", 0.0, true
	for label, score := range scores {
		if first || score > bestScore || (score == bestScore && label < best) {
			best, bestScore, first = label, score, false
		}
	}
	return best
}

func cloneRows(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
