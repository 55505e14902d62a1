package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const leafFeature = -1

// treeNode is one node of a flattened decision tree. Leaves have
// Feature == -1 and carry class probabilities in Dist.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Dist      []float64 `json:"d,omitempty"`
}

type DecisionTree struct {
	Nodes []treeNode `json:"nodes"`
}

// RandomForestClassifier is a bagged ensemble of CART trees split on Gini
// impurity, considering MaxFeatures random columns per split.
type RandomForestClassifier struct {
	NumTrees        int            `json:"num_trees"`
	MaxFeatures     int            `json:"max_features"`
	MaxDepth        int            `json:"max_depth"`
	MinSamplesSplit int            `json:"min_samples_split"`
	Seed            int64          `json:"seed"`
	NumFeatures     int            `json:"num_features"`
	Classes         []string       `json:"classes"`
	Trees           []DecisionTree `json:"trees"`
}

// NewRandomForestClassifier returns a forest with sqrt(features) candidates
// per split and unlimited depth. MaxFeatures is resolved at Fit time.
func NewRandomForestClassifier(numTrees int, seed int64) *RandomForestClassifier {
	return &RandomForestClassifier{
		NumTrees:        numTrees,
		MinSamplesSplit: 2,
		Seed:            seed,
	}
}

func (f *RandomForestClassifier) Fit(x [][]float64, y []string) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d rows and %d labels", len(x), len(y))
	}
	if f.NumTrees <= 0 {
		return fmt.Errorf("num trees must be positive, got %d", f.NumTrees)
	}

	f.NumFeatures = len(x[0])
	if f.MaxFeatures <= 0 || f.MaxFeatures > f.NumFeatures {
		f.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(f.NumFeatures)))))
	}
	if f.MinSamplesSplit < 2 {
		f.MinSamplesSplit = 2
	}

	f.Classes = uniqueSorted(y)
	classIndex := make(map[string]int, len(f.Classes))
	for i, c := range f.Classes {
		classIndex[c] = i
	}
	yi := make([]int, len(y))
	for i, label := range y {
		yi[i] = classIndex[label]
	}

	rng := rand.New(rand.NewSource(f.Seed))
	f.Trees = make([]DecisionTree, f.NumTrees)
	for t := range f.Trees {
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}
		b := &treeBuilder{forest: f, x: x, y: yi, rng: rng}
		b.build(sample, 0)
		f.Trees[t] = DecisionTree{Nodes: b.nodes}
	}
	return nil
}

// Predict returns the class with the highest mean leaf probability.
func (f *RandomForestClassifier) Predict(row []float64) (string, error) {
	if len(f.Trees) == 0 {
		return "", ErrNotFitted
	}
	if len(row) != f.NumFeatures {
		return "", fmt.Errorf("row has %d columns, model expects %d", len(row), f.NumFeatures)
	}
	proba := make([]float64, len(f.Classes))
	for _, tree := range f.Trees {
		for c, p := range tree.leaf(row).Dist {
			proba[c] += p
		}
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.Classes[best], nil
}

func (f *RandomForestClassifier) PredictAll(x [][]float64) ([]string, error) {
	out := make([]string, len(x))
	for i, row := range x {
		p, err := f.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (t DecisionTree) leaf(row []float64) treeNode {
	n := t.Nodes[0]
	for n.Feature != leafFeature {
		if row[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n
}

type treeBuilder struct {
	forest *RandomForestClassifier
	x      [][]float64
	y      []int
	rng    *rand.Rand
	nodes  []treeNode
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: leafFeature})

	counts := b.classCounts(idx)
	if isPure(counts) || len(idx) < b.forest.MinSamplesSplit ||
		(b.forest.MaxDepth > 0 && depth >= b.forest.MaxDepth) {
		b.nodes[id].Dist = normalize(counts)
		return id
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[id].Dist = normalize(counts)
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id] = treeNode{Feature: best.feature, Threshold: best.threshold, Left: l, Right: r}
	return id
}

// bestSplit draws MaxFeatures candidate columns and keeps drawing from the
// rest while none of them separates the samples.
func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	order := b.rng.Perm(b.forest.NumFeatures)
	best := split{impurity: math.Inf(1)}
	found := false
	for n, feature := range order {
		if n >= b.forest.MaxFeatures && found {
			break
		}
		if s, ok := b.splitOn(idx, feature); ok && s.impurity < best.impurity {
			best, found = s, true
		}
	}
	return best, found
}

func (b *treeBuilder) splitOn(idx []int, feature int) (split, bool) {
	sorted := append([]int(nil), idx...)
	sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][feature] < b.x[sorted[j]][feature] })

	k := len(b.forest.Classes)
	left := make([]float64, k)
	right := b.classCounts(sorted)
	total := float64(len(sorted))

	best := split{feature: feature, impurity: math.Inf(1)}
	found := false
	for i := 0; i < len(sorted)-1; i++ {
		c := b.y[sorted[i]]
		left[c]++
		right[c]--

		v, next := b.x[sorted[i]][feature], b.x[sorted[i+1]][feature]
		if v == next {
			continue
		}
		nl := float64(i + 1)
		nr := total - nl
		imp := (nl*gini(left, nl) + nr*gini(right, nr)) / total
		if imp < best.impurity {
			best.impurity = imp
			best.threshold = v + (next-v)/2
			found = true
		}
	}
	return best, found
}

func (b *treeBuilder) classCounts(idx []int) []float64 {
	counts := make([]float64, len(b.forest.Classes))
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}

func uniqueSorted(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := []string{}
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}
