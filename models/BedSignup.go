package models

import (
	"time"

	"gorm.io/gorm"
)

// BedSignup links a user to a bed within a signup window. A user holds at
// most one claim per window (unique index below); a bed may be claimed by
// several users at once, shared beds are allowed.
type BedSignup struct {
	gorm.Model
	SignupWindowID uint      `json:"signupWindowID" gorm:"not null;uniqueIndex:idx_bed_signups_window_user"`
	UserID         uint      `json:"userID" gorm:"not null;uniqueIndex:idx_bed_signups_window_user"`
	BedID          uint      `json:"bedID" gorm:"index;not null"`
	StayID         *uint     `json:"stayID" gorm:"index"`
	ClaimedAt      time.Time `json:"claimedAt"`

	SignupWindow *SignupWindow `json:"signupWindow,omitempty" gorm:"foreignKey:SignupWindowID"`
	Bed          *Bed          `json:"bed,omitempty" gorm:"foreignKey:BedID"`
	User         *User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
