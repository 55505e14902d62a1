package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Artifact file names inside a models directory.
const (
	KNNFile    = "knn_model.json"
	ForestFile = "rf_model.json"
	ScalerFile = "scaler.json"
)

// ArtifactVersion is bumped whenever the on-disk layout changes.
const ArtifactVersion = 1

var ErrArtifactVersion = errors.New("unsupported artifact version")

// Artifacts bundles the three trained objects used for inference.
type Artifacts struct {
	Scaler *StandardScaler
	KNN    *KNNClassifier
	Forest *RandomForestClassifier
}

type envelope[T any] struct {
	Version int    `json:"version"`
	Kind    string `json:"kind"`
	Model   T      `json:"model"`
}

// SaveArtifacts writes the three artifact files into dir, creating it.
func SaveArtifacts(dir string, a *Artifacts) error {
	if a == nil || a.Scaler == nil || a.KNN == nil || a.Forest == nil {
		return errors.New("artifacts are incomplete")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, ScalerFile), envelope[*StandardScaler]{ArtifactVersion, "standard_scaler", a.Scaler}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, KNNFile), envelope[*KNNClassifier]{ArtifactVersion, "knn_classifier", a.KNN}); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ForestFile), envelope[*RandomForestClassifier]{ArtifactVersion, "random_forest_classifier", a.Forest})
}

// LoadArtifacts reads all three artifacts from dir. Any missing or
// malformed file fails the whole load.
func LoadArtifacts(dir string) (*Artifacts, error) {
	scaler, err := readJSON[*StandardScaler](filepath.Join(dir, ScalerFile))
	if err != nil {
		return nil, err
	}
	knn, err := readJSON[*KNNClassifier](filepath.Join(dir, KNNFile))
	if err != nil {
		return nil, err
	}
	forest, err := readJSON[*RandomForestClassifier](filepath.Join(dir, ForestFile))
	if err != nil {
		return nil, err
	}
	if scaler == nil || knn == nil || forest == nil {
		return nil, errors.New("artifact file has no model")
	}
	return &Artifacts{Scaler: scaler, KNN: knn, Forest: forest}, nil
}

func writeJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

func readJSON[T any](path string) (T, error) {
	var env envelope[T]
	b, err := os.ReadFile(path)
	if err != nil {
		return env.Model, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return env.Model, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	if env.Version != ArtifactVersion {
		return env.Model, fmt.Errorf("%s: %w %d", filepath.Base(path), ErrArtifactVersion, env.Version)
	}
	return env.Model, nil
}
