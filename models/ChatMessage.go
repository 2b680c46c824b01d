package models

import "time"

// ChatMessage stores a single message in a house's chat channel
// Ephemeral by default: messages can have an ExpiresAt for TTL deletion
type ChatMessage struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	HouseID uint `json:"houseID" gorm:"not null;index"`

	SenderID uint `json:"senderID" gorm:"not null;index"`
	Sender   User `json:"sender" gorm:"foreignKey:SenderID"`

	Content string `json:"content" gorm:"type:text"`
	Color   string `json:"color" gorm:"size:12"`

	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt" gorm:"index"`
}
