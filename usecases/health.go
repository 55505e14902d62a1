package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"health-monitor/entities"
	"health-monitor/logging"
	"health-monitor/metrics"
	"health-monitor/ml"
	"health-monitor/repositories"
)

// NoRecommendation is shown on a dashboard with no readings.
const NoRecommendation = "No recommendations yet."

var (
	ErrInvalidReading = errors.New("invalid health reading")
	ErrUserNotFound   = errors.New("user not found")
)

// Recommender produces a recommendation for a reading.
type Recommender interface {
	Recommend(ctx context.Context, f ml.Features) string
}

// Notifier is told about every stored reading.
type Notifier interface {
	ReadingAdded(userID uint, data entities.HealthData)
}

// ReadingInput is one submitted reading before validation.
type ReadingInput struct {
	Pulse         int     `json:"pulse" form:"pulse"`
	BloodPressure string  `json:"blood_pressure" form:"blood_pressure"`
	Weight        float64 `json:"weight" form:"weight"`
	ActivityLevel string  `json:"activity_level" form:"activity_level"`
}

// Dashboard is everything the dashboard page shows.
type Dashboard struct {
	Readings       []entities.HealthData `json:"readings"`
	Recommendation string                `json:"recommendation"`
}

// Distribution holds activity level counts in Low, Moderate, High order.
type Distribution struct {
	Levels []LevelCount `json:"levels"`
	Total  int64        `json:"total"`
}

type LevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

type HealthUseCase struct {
	UserRepo    repositories.UserRepository
	DataRepo    repositories.HealthDataRepository
	Recommender Recommender
	Notifier    Notifier
}

func NewHealthUseCase(userRepo repositories.UserRepository, dataRepo repositories.HealthDataRepository, rec Recommender, notifier Notifier) *HealthUseCase {
	return &HealthUseCase{
		UserRepo:    userRepo,
		DataRepo:    dataRepo,
		Recommender: rec,
		Notifier:    notifier,
	}
}

func (in ReadingInput) validate() (ml.Features, error) {
	if in.Pulse <= 0 {
		return ml.Features{}, fmt.Errorf("%w: pulse must be positive", ErrInvalidReading)
	}
	if math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) || in.Weight <= 0 {
		return ml.Features{}, fmt.Errorf("%w: weight must be a positive number", ErrInvalidReading)
	}
	if strings.TrimSpace(in.ActivityLevel) == "" {
		return ml.Features{}, fmt.Errorf("%w: activity level is required", ErrInvalidReading)
	}
	f, err := ml.NewFeatures(in.Pulse, in.BloodPressure, in.Weight, strings.TrimSpace(in.ActivityLevel))
	if err != nil {
		return ml.Features{}, fmt.Errorf("%w: %v", ErrInvalidReading, err)
	}
	return f, nil
}

// AddReading validates and stores a reading for userID together with its
// recommendation.
func (uc *HealthUseCase) AddReading(ctx context.Context, userID uint, in ReadingInput) (*entities.HealthData, error) {
	features, err := in.validate()
	if err != nil {
		return nil, err
	}

	if _, err := uc.UserRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	data := &entities.HealthData{
		UserID:         userID,
		Pulse:          in.Pulse,
		BloodPressure:  strings.TrimSpace(in.BloodPressure),
		Weight:         in.Weight,
		ActivityLevel:  strings.TrimSpace(in.ActivityLevel),
		Recommendation: uc.Recommender.Recommend(ctx, features),
	}
	if err := uc.DataRepo.Create(ctx, data); err != nil {
		return nil, err
	}

	label := data.ActivityLevel
	if !entities.IsKnownActivityLevel(label) {
		label = "other"
	}
	metrics.ReadingsSubmitted.WithLabelValues(label).Inc()
	logging.Ctx(ctx).Info().Uint("user_id", userID).Uint("reading_id", data.ID).Msg("reading stored")

	if uc.Notifier != nil {
		uc.Notifier.ReadingAdded(userID, *data)
	}
	return data, nil
}

// Dashboard returns the user's readings oldest first with the latest
// recommendation.
func (uc *HealthUseCase) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	readings, err := uc.DataRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Readings: readings, Recommendation: NoRecommendation}
	if len(readings) > 0 {
		d.Recommendation = readings[len(readings)-1].Recommendation
	}
	return d, nil
}

// ActivityDistribution counts the user's readings per known activity level.
func (uc *HealthUseCase) ActivityDistribution(ctx context.Context, userID uint) (*Distribution, error) {
	counts, err := uc.DataRepo.CountActivityLevels(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &Distribution{Levels: make([]LevelCount, 0, len(entities.ActivityLevels))}
	for _, level := range entities.ActivityLevels {
		d.Levels = append(d.Levels, LevelCount{Level: level, Count: counts[level]})
		d.Total += counts[level]
	}
	return d, nil
}
