package models

import (
	"gorm.io/gorm"
)

// Notification is an in-app notification row; delivery is the client's job.
type Notification struct {
	gorm.Model
	UserID  uint   `json:"userID" gorm:"index;not null"`
	Title   string `json:"title" gorm:"size:128"`
	Message string `json:"message" gorm:"size:512"`
	Type    string `json:"type" gorm:"size:32"` // window_opened, guest_fee, expense_settled
	RefID   uint   `json:"refID"`
	RefType string `json:"refType" gorm:"size:32"` // signup_window, expense_split
	IsRead  bool   `json:"isRead" gorm:"index"`
}
