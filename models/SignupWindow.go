package models

import (
	"time"

	"gorm.io/gorm"
)

// SignupWindow is a claim period for one target weekend. Lifecycle:
// scheduled -> open (at OpensAt, or by admin override) -> closed.
type SignupWindow struct {
	gorm.Model
	HouseID            uint      `json:"houseID" gorm:"index;not null"`
	TargetWeekendStart time.Time `json:"targetWeekendStart"`
	TargetWeekendEnd   time.Time `json:"targetWeekendEnd"`
	OpensAt            time.Time `json:"opensAt"`
	Status             string    `json:"status" gorm:"type:varchar(20);default:scheduled;index"` // scheduled, open, closed
}
