package repositories

import (
	"context"
	"errors"

	"health-monitor/entities"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetAll(ctx context.Context) ([]entities.User, error)
}

type HealthDataRepository interface {
	Create(ctx context.Context, data *entities.HealthData) error
	GetByUserID(ctx context.Context, userID uint) ([]entities.HealthData, error)
	GetAll(ctx context.Context) ([]entities.HealthData, error)
	CountActivityLevels(ctx context.Context, userID uint) (map[string]int64, error)
}
