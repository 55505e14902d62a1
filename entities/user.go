package entities

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is an account holder. Password holds the bcrypt hash only.
type User struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Username   string       `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Password   string       `gorm:"size:255;not null" json:"-"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	HealthData []HealthData `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"health_data,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.Username = strings.TrimSpace(u.Username)
	return
}
