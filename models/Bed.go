package models

import (
	"gorm.io/gorm"
)

type Bed struct {
	gorm.Model
	RoomID       uint   `json:"roomID" gorm:"index;not null"`
	Name         string `json:"name"`
	Type         string `json:"type" gorm:"type:varchar(20)"` // single, double, bunk_top, bunk_bottom
	IsPremium    bool   `json:"isPremium"`
	DisplayOrder int    `json:"displayOrder"`

	Room *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
}
