package entities

import "time"

// Activity levels accepted by the add-reading form, in chart order.
const (
	ActivityLow      = "Low"
	ActivityModerate = "Moderate"
	ActivityHigh     = "High"
)

// ActivityLevels lists the known activity levels in display order.
var ActivityLevels = []string{ActivityLow, ActivityModerate, ActivityHigh}

// HealthData is one submitted reading owned by exactly one user.
type HealthData struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Pulse          int       `gorm:"not null" json:"pulse"`
	BloodPressure  string    `gorm:"size:50;not null" json:"blood_pressure"`
	Weight         float64   `gorm:"not null" json:"weight"`
	ActivityLevel  string    `gorm:"size:100;not null" json:"activity_level"`
	Recommendation string    `gorm:"size:255" json:"recommendation"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsKnownActivityLevel reports whether level is one of ActivityLevels.
func IsKnownActivityLevel(level string) bool {
	for _, l := range ActivityLevels {
		if l == level {
			return true
		}
	}
	return false
}
