package repositories

import (
	"context"
	"errors"
	"fmt"

	"health-monitor/db"
	"health-monitor/entities"

	"gorm.io/gorm"
)

type userSQLRepository struct {
	db db.Database
}

func NewUserSQLRepository(database db.Database) UserRepository {
	return &userSQLRepository{db: database}
}

func (r *userSQLRepository) Create(ctx context.Context, user *entities.User) error {
	err := r.db.GetDB().WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userSQLRepository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, wrapLookup(err, "user")
	}
	return &user, nil
}

func (r *userSQLRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, wrapLookup(err, "user")
	}
	return &user, nil
}

func (r *userSQLRepository) GetAll(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.GetDB().WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

func wrapLookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to fetch %s: %w", what, err)
}
