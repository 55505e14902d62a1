package services

import (
	"context"
	"time"

	"health-monitor/logging"
	"health-monitor/metrics"
	"health-monitor/ml"
)

// PlaceholderRecommendation is stored when the models could not be loaded.
const PlaceholderRecommendation = "Machine Learning models are not available. Please check system configuration."

// Recommender turns a reading into a recommendation label using the k-NN
// model, and logs the random-forest trend next to it.
type Recommender struct {
	artifacts *ml.Artifacts
}

// NewRecommender serves predictions from a, or the placeholder when a is nil.
func NewRecommender(a *ml.Artifacts) *Recommender {
	return &Recommender{artifacts: a}
}

// LoadRecommender loads artifacts from dir. A failed load is logged and
// yields a Recommender that answers with the placeholder.
func LoadRecommender(dir string) *Recommender {
	a, err := ml.LoadArtifacts(dir)
	if err != nil {
		logging.Error().Err(err).Str("dir", dir).Msg("error loading models")
		return NewRecommender(nil)
	}
	logging.Info().Str("dir", dir).Int("trees", len(a.Forest.Trees)).Msg("models loaded")
	return NewRecommender(a)
}

// Available reports whether trained models are loaded.
func (r *Recommender) Available() bool {
	return r.artifacts != nil
}

// Recommend returns the k-NN label for f. Inference failures fall back to
// the placeholder so a reading is never rejected because of the models.
func (r *Recommender) Recommend(ctx context.Context, f ml.Features) string {
	start := time.Now()
	if !r.Available() {
		metrics.ObserveRecommendation("placeholder", time.Since(start))
		return PlaceholderRecommendation
	}

	row := f.Row()
	scaled, err := r.artifacts.Scaler.TransformRow(row)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scaling features failed")
		metrics.ObserveRecommendation("placeholder", time.Since(start))
		return PlaceholderRecommendation
	}

	suggestion, err := r.artifacts.KNN.Predict(scaled)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("knn prediction failed")
		metrics.ObserveRecommendation("placeholder", time.Since(start))
		return PlaceholderRecommendation
	}

	trend, err := r.artifacts.Forest.Predict(row)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("random forest prediction failed")
	}

	metrics.ObserveRecommendation("model", time.Since(start))
	logging.Ctx(ctx).Info().Str("knn_suggestion", suggestion).Str("health_trend", trend).Msg("recommendation generated")
	return suggestion
}
