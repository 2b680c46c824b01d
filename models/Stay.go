package models

import (
	"time"

	"gorm.io/gorm"
)

// Stay is a member's visit to the house. GuestCount drives the guest-fee
// expense; BedSignupID points back at the claim made for this visit.
type Stay struct {
	gorm.Model
	HouseID     uint      `json:"houseID" gorm:"index;not null"`
	UserID      uint      `json:"userID" gorm:"index;not null"`
	CheckIn     time.Time `json:"checkIn"`
	CheckOut    time.Time `json:"checkOut"`
	GuestCount  int       `json:"guestCount"`
	Notes       string    `json:"notes" gorm:"type:text"`
	BedSignupID *uint     `json:"bedSignupID" gorm:"index"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
