package models

import (
	"gorm.io/gorm"
)

// House is a shared vacation house. AdminUserID doubles as the guest-fee
// recipient: fees computed for member stays are owed to this user.
type House struct {
	gorm.Model
	Name             string  `json:"name"`
	InviteCode       string  `json:"inviteCode" gorm:"uniqueIndex;size:32"`
	AdminUserID      uint    `json:"adminUserID" gorm:"index;not null"`
	GuestNightlyRate float64 `json:"guestNightlyRate"`
	BedSignupEnabled bool    `json:"bedSignupEnabled" gorm:"default:true"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`

	Admin   *User         `json:"admin,omitempty" gorm:"foreignKey:AdminUserID"`
	Rooms   []Room        `json:"rooms,omitempty" gorm:"foreignKey:HouseID"`
	Members []HouseMember `json:"members,omitempty" gorm:"foreignKey:HouseID"`
}

type HouseMember struct {
	gorm.Model
	HouseID uint   `json:"houseID" gorm:"not null;uniqueIndex:idx_house_members_house_user"`
	UserID  uint   `json:"userID" gorm:"not null;uniqueIndex:idx_house_members_house_user"`
	Role    string `json:"role" gorm:"type:varchar(20);default:member"` // member, admin

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
