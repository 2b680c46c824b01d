package models

import (
	"gorm.io/gorm"
)

type Room struct {
	gorm.Model
	HouseID      uint   `json:"houseID" gorm:"index;not null"`
	Name         string `json:"name"`
	Type         string `json:"type" gorm:"type:varchar(20);default:other"` // bunk_room, private, loft, other
	DisplayOrder int    `json:"displayOrder"`

	Beds []Bed `json:"beds,omitempty" gorm:"foreignKey:RoomID"`
}
