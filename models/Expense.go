package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense is money owed to RecipientID, split among members. Guest fees
// generated from stays carry Category "guest_fee" and a StayID.
type Expense struct {
	gorm.Model
	HouseID     uint    `json:"houseID" gorm:"index;not null"`
	RecipientID uint    `json:"recipientID" gorm:"index;not null"`
	CreatedByID uint    `json:"createdByID"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category" gorm:"type:varchar(20);default:manual;index"` // manual, guest_fee
	StayID      *uint   `json:"stayID" gorm:"index"`

	Recipient *User          `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
	Splits    []ExpenseSplit `json:"splits,omitempty" gorm:"foreignKey:ExpenseID"`
}

type ExpenseSplit struct {
	gorm.Model
	ExpenseID   uint       `json:"expenseID" gorm:"index;not null"`
	UserID      uint       `json:"userID" gorm:"index;not null"`
	Amount      float64    `json:"amount"`
	Settled     bool       `json:"settled"`
	SettledAt   *time.Time `json:"settledAt"`
	SettledByID *uint      `json:"settledByID"`

	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Expense *Expense `json:"-" gorm:"foreignKey:ExpenseID"`
}
