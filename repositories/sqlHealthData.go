package repositories

import (
	"context"
	"fmt"

	"health-monitor/db"
	"health-monitor/entities"
)

type healthDataSQLRepository struct {
	db db.Database
}

func NewHealthDataSQLRepository(database db.Database) HealthDataRepository {
	return &healthDataSQLRepository{db: database}
}

func (r *healthDataSQLRepository) Create(ctx context.Context, data *entities.HealthData) error {
	if err := r.db.GetDB().WithContext(ctx).Create(data).Error; err != nil {
		return fmt.Errorf("failed to create health data: %w", err)
	}
	return nil
}

// GetByUserID returns the readings of one user in submission order.
func (r *healthDataSQLRepository) GetByUserID(ctx context.Context, userID uint) ([]entities.HealthData, error) {
	var data []entities.HealthData
	err := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&data).Error
	return data, err
}

func (r *healthDataSQLRepository) GetAll(ctx context.Context) ([]entities.HealthData, error) {
	var data []entities.HealthData
	err := r.db.GetDB().WithContext(ctx).Order("id ASC").Find(&data).Error
	return data, err
}

func (r *healthDataSQLRepository) CountActivityLevels(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []struct {
		ActivityLevel string
		Count         int64
	}
	err := r.db.GetDB().WithContext(ctx).
		Model(&entities.HealthData{}).
		Select("activity_level, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("activity_level").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count activity levels: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ActivityLevel] = row.Count
	}
	return counts, nil
}
