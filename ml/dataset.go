package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// Dataset is a labeled set of feature rows.
type Dataset struct {
	X [][]float64
	Y []string
}

func (d *Dataset) Len() int { return len(d.X) }

// LoadCSV reads a dataset file with header
// pulse,blood_pressure,weight,activity_level,recommendation.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses dataset rows. Columns are located by header name so extra
// columns are ignored.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	required := append(append([]string(nil), FeatureNames...), "recommendation")
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset is missing column %q", name)
		}
	}

	ds := &Dataset{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		pulse, err := strconv.ParseFloat(record[cols["pulse"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid pulse: %w", line, err)
		}
		bp, err := ParseBloodPressure(record[cols["blood_pressure"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		weight, err := strconv.ParseFloat(record[cols["weight"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid weight: %w", line, err)
		}
		activity := EncodeActivityLevel(strings.TrimSpace(record[cols["activity_level"]]))

		ds.X = append(ds.X, []float64{pulse, bp, weight, activity})
		ds.Y = append(ds.Y, strings.TrimSpace(record[cols["recommendation"]]))
	}

	if ds.Len() == 0 {
		return nil, ErrEmptyTrainingSet
	}
	return ds, nil
}

// TrainTestSplit shuffles with seed and holds out testSize of the rows.
func (d *Dataset) TrainTestSplit(testSize float64, seed int64) (train, test *Dataset) {
	perm := rand.New(rand.NewSource(seed)).Perm(d.Len())
	nTest := int(math.Ceil(float64(d.Len()) * testSize))
	if nTest >= d.Len() {
		nTest = d.Len() - 1
	}

	train, test = &Dataset{}, &Dataset{}
	for i, p := range perm {
		dst := train
		if i < nTest {
			dst = test
		}
		dst.X = append(dst.X, d.X[p])
		dst.Y = append(dst.Y, d.Y[p])
	}
	return train, test
}

// Accuracy is the fraction of predictions equal to want.
func Accuracy(want, got []string) float64 {
	if len(want) == 0 || len(want) != len(got) {
		return 0
	}
	hits := 0
	for i := range want {
		if want[i] == got[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}
