// Package ml holds the recommendation models: a standard scaler, a k-nearest
// neighbors classifier and a random forest, plus their training and on-disk
// artifacts.
//
// Feature rows are always [pulse, blood_pressure, weight, activity_level].
package ml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"health-monitor/entities"
)

// NumFeatures is the width of every feature row.
const NumFeatures = 4

// FeatureNames are the column names of a feature row, in order.
var FeatureNames = []string{"pulse", "blood_pressure", "weight", "activity_level"}

var ErrInvalidBloodPressure = errors.New("blood pressure must look like 120/80 or 120")

// Features is one model input.
type Features struct {
	Pulse         float64
	BloodPressure float64
	Weight        float64
	ActivityLevel float64
}

// NewFeatures encodes a submitted reading as model input.
func NewFeatures(pulse int, bloodPressure string, weight float64, activityLevel string) (Features, error) {
	bp, err := ParseBloodPressure(bloodPressure)
	if err != nil {
		return Features{}, err
	}
	return Features{
		Pulse:         float64(pulse),
		BloodPressure: bp,
		Weight:        weight,
		ActivityLevel: EncodeActivityLevel(activityLevel),
	}, nil
}

// Row returns the features in column order.
func (f Features) Row() []float64 {
	return []float64{f.Pulse, f.BloodPressure, f.Weight, f.ActivityLevel}
}

// ParseBloodPressure returns the systolic value of "120/80" or "120".
func ParseBloodPressure(s string) (float64, error) {
	s = strings.TrimSpace(s)
	systolic, _, _ := strings.Cut(s, "/")
	v, err := strconv.ParseFloat(strings.TrimSpace(systolic), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBloodPressure, s)
	}
	return v, nil
}

// EncodeActivityLevel maps Low/Moderate/High to 0/1/2. Unknown levels
// encode as Moderate.
func EncodeActivityLevel(level string) float64 {
	switch level {
	case entities.ActivityLow:
		return 0
	case entities.ActivityHigh:
		return 2
	default:
		return 1
	}
}
