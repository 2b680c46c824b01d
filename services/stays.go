package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"mokki-server/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidDates = errors.New("Invalid Dates: check-out must be after check-in")
	ErrNotStayOwner = errors.New("You can only update your own stay")
)

// StayService owns stay records and the guest-fee expense attached to them.
type StayService struct {
	DB *gorm.DB
}

func NewStayService(db *gorm.DB) *StayService {
	return &StayService{DB: db}
}

// Nights counts billable nights: partial days round up, minimum one.
func Nights(checkIn, checkOut time.Time) int {
	nights := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
	if nights < 1 {
		nights = 1
	}
	return nights
}

// GuestFee is guestCount x nights x nightlyRate; zero when either the
// house charges nothing or no guests come along.
func GuestFee(guestCount, nights int, nightlyRate float64) float64 {
	if guestCount <= 0 || nightlyRate <= 0 {
		return 0
	}
	return float64(guestCount) * float64(nights) * nightlyRate
}

type StayInput struct {
	CheckIn     time.Time
	CheckOut    time.Time
	GuestCount  int
	Notes       string
	BedSignupID *uint
}

// CreateStay validates dates, persists the stay, links the bed claim when
// one was made beforehand, and materializes the guest fee.
func (s *StayService) CreateStay(house models.House, userID uint, input StayInput) (*models.Stay, error) {
	if !input.CheckOut.After(input.CheckIn) {
		return nil, ErrInvalidDates
	}

	stay := models.Stay{
		HouseID:     house.ID,
		UserID:      userID,
		CheckIn:     input.CheckIn,
		CheckOut:    input.CheckOut,
		GuestCount:  input.GuestCount,
		Notes:       input.Notes,
		BedSignupID: input.BedSignupID,
	}
	if err := s.DB.Create(&stay).Error; err != nil {
		return nil, err
	}

	if input.BedSignupID != nil {
		if err := s.attachClaim(*input.BedSignupID, &stay, userID); err != nil {
			return nil, err
		}
	}

	if err := s.reconcileGuestFee(house, &stay); err != nil {
		return nil, err
	}
	return &stay, nil
}

// UpdateStay recomputes the guest fee from the possibly changed dates,
// guest count, and current house rate; the linked expense split is updated
// in place, never duplicated.
func (s *StayService) UpdateStay(house models.House, stayID, userID uint, input StayInput) (*models.Stay, error) {
	var stay models.Stay
	if err := s.DB.First(&stay, stayID).Error; err != nil {
		return nil, err
	}
	if stay.UserID != userID {
		return nil, ErrNotStayOwner
	}
	if !input.CheckOut.After(input.CheckIn) {
		return nil, ErrInvalidDates
	}

	stay.CheckIn = input.CheckIn
	stay.CheckOut = input.CheckOut
	stay.GuestCount = input.GuestCount
	stay.Notes = input.Notes
	if input.BedSignupID != nil {
		if err := s.attachClaim(*input.BedSignupID, &stay, userID); err != nil {
			return nil, err
		}
	}
	if err := s.DB.Save(&stay).Error; err != nil {
		return nil, err
	}

	if err := s.reconcileGuestFee(house, &stay); err != nil {
		return nil, err
	}
	return &stay, nil
}

// DeleteStay removes the stay, its guest-fee expense, and detaches any
// claims pointing at it.
func (s *StayService) DeleteStay(stayID, userID uint) error {
	var stay models.Stay
	if err := s.DB.First(&stay, stayID).Error; err != nil {
		return err
	}
	if stay.UserID != userID {
		return ErrNotStayOwner
	}

	if err := s.dropGuestFee(stay.ID); err != nil {
		return err
	}
	if err := s.DB.Model(&models.BedSignup{}).
		Where("stay_id = ?", stay.ID).
		Update("stay_id", nil).Error; err != nil {
		return err
	}
	return s.DB.Delete(&stay).Error
}

func (s *StayService) attachClaim(signupID uint, stay *models.Stay, userID uint) error {
	var signup models.BedSignup
	if err := s.DB.First(&signup, signupID).Error; err != nil {
		return err
	}
	if signup.UserID != userID {
		return ErrNotClaimEditor
	}
	if err := s.DB.Model(&signup).Update("stay_id", stay.ID).Error; err != nil {
		return err
	}
	stay.BedSignupID = &signup.ID
	return s.DB.Model(stay).Update("bed_signup_id", signup.ID).Error
}

func (s *StayService) reconcileGuestFee(house models.House, stay *models.Stay) error {
	nights := Nights(stay.CheckIn, stay.CheckOut)
	fee := GuestFee(stay.GuestCount, nights, house.GuestNightlyRate)

	var expense models.Expense
	err := s.DB.Where("stay_id = ? AND category = ?", stay.ID, "guest_fee").First(&expense).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if fee <= 0 {
		if found {
			return s.dropGuestFee(stay.ID)
		}
		return nil
	}

	description := fmt.Sprintf("Guest fee: %d guest(s) x %d night(s)", stay.GuestCount, nights)

	if found {
		expense.Amount = fee
		expense.Description = description
		if err := s.DB.Save(&expense).Error; err != nil {
			return err
		}
		return s.DB.Model(&models.ExpenseSplit{}).
			Where("expense_id = ?", expense.ID).
			Update("amount", fee).Error
	}

	stayID := stay.ID
	expense = models.Expense{
		HouseID:     house.ID,
		RecipientID: house.AdminUserID,
		CreatedByID: stay.UserID,
		Description: description,
		Amount:      fee,
		Category:    "guest_fee",
		StayID:      &stayID,
	}
	if err := s.DB.Create(&expense).Error; err != nil {
		return err
	}
	split := models.ExpenseSplit{
		ExpenseID: expense.ID,
		UserID:    stay.UserID,
		Amount:    fee,
	}
	if err := s.DB.Create(&split).Error; err != nil {
		return err
	}

	s.DB.Create(&models.Notification{
		UserID:  stay.UserID,
		Title:   "Guest fee added",
		Message: description,
		Type:    "guest_fee",
		RefID:   split.ID,
		RefType: "expense_split",
	})
	return nil
}

func (s *StayService) dropGuestFee(stayID uint) error {
	var expense models.Expense
	err := s.DB.Where("stay_id = ? AND category = ?", stayID, "guest_fee").First(&expense).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.DB.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseSplit{}).Error; err != nil {
		return err
	}
	return s.DB.Delete(&expense).Error
}
