package services

import (
	"errors"
	"testing"
	"time"

	"mokki-server/models"
)

func TestNights(t *testing.T) {
	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{
			name:     "three full days",
			checkIn:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			checkOut: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
			want:     3,
		},
		{
			name:     "partial day rounds up",
			checkIn:  time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC),
			checkOut: time.Date(2024, 1, 8, 11, 0, 0, 0, time.UTC),
			want:     3,
		},
		{
			name:     "short overnight counts as one",
			checkIn:  time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC),
			checkOut: time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC),
			want:     1,
		},
	}
	for _, tc := range cases {
		if got := Nights(tc.checkIn, tc.checkOut); got != tc.want {
			t.Errorf("%s: Nights = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestGuestFee(t *testing.T) {
	if fee := GuestFee(2, 3, 20); fee != 120 {
		t.Fatalf("expected fee 120, got %v", fee)
	}
	if fee := GuestFee(0, 3, 20); fee != 0 {
		t.Fatalf("expected zero fee without guests, got %v", fee)
	}
	if fee := GuestFee(2, 3, 0); fee != 0 {
		t.Fatalf("expected zero fee with zero rate, got %v", fee)
	}
}

func TestCreateStayMaterializesGuestFee(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewStayService(db)

	stay, err := svc.CreateStay(f.House, f.Member.ID, StayInput{
		CheckIn:    time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		GuestCount: 2,
	})
	if err != nil {
		t.Fatalf("CreateStay failed: %v", err)
	}

	var expense models.Expense
	if err := db.Where("stay_id = ? AND category = ?", stay.ID, "guest_fee").First(&expense).Error; err != nil {
		t.Fatalf("guest fee expense missing: %v", err)
	}
	if expense.Amount != 120 {
		t.Fatalf("expected fee 120 (2 guests x 3 nights x 20), got %v", expense.Amount)
	}
	if expense.RecipientID != f.Admin.ID {
		t.Fatalf("fee should be owed to the house admin, got recipient %d", expense.RecipientID)
	}

	var split models.ExpenseSplit
	if err := db.Where("expense_id = ?", expense.ID).First(&split).Error; err != nil {
		t.Fatalf("expense split missing: %v", err)
	}
	if split.UserID != f.Member.ID || split.Amount != 120 {
		t.Fatalf("unexpected split: user %d amount %v", split.UserID, split.Amount)
	}

	var notificationCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", f.Member.ID, "guest_fee").
		Count(&notificationCount)
	if notificationCount != 1 {
		t.Fatalf("expected a guest fee notification, found %d", notificationCount)
	}
}

func TestCreateStayNoFeeWithoutGuests(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewStayService(db)

	stay, err := svc.CreateStay(f.House, f.Member.ID, StayInput{
		CheckIn:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateStay failed: %v", err)
	}

	var count int64
	db.Model(&models.Expense{}).Where("stay_id = ?", stay.ID).Count(&count)
	if count != 0 {
		t.Fatalf("no expense expected for a stay without guests, found %d", count)
	}
}

func TestCreateStayInvalidDates(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewStayService(db)

	_, err := svc.CreateStay(f.House, f.Member.ID, StayInput{
		CheckIn:  time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidDates) {
		t.Fatalf("expected ErrInvalidDates, got %v", err)
	}

	// Equal timestamps are rejected too.
	same := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	_, err = svc.CreateStay(f.House, f.Member.ID, StayInput{CheckIn: same, CheckOut: same})
	if !errors.Is(err, ErrInvalidDates) {
		t.Fatalf("expected ErrInvalidDates for equal dates, got %v", err)
	}

	var count int64
	db.Model(&models.Stay{}).Count(&count)
	if count != 0 {
		t.Fatalf("nothing should be persisted on invalid dates, found %d stays", count)
	}
}

func TestUpdateStayReconcilesFeeInPlace(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewStayService(db)

	checkIn := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	stay, err := svc.CreateStay(f.House, f.Member.ID, StayInput{
		CheckIn: checkIn, CheckOut: checkOut, GuestCount: 2,
	})
	if err != nil {
		t.Fatalf("CreateStay failed: %v", err)
	}

	// Fewer guests: the same expense and split shrink, no duplicates.
	if _, err := svc.UpdateStay(f.House, stay.ID, f.Member.ID, StayInput{
		CheckIn: checkIn, CheckOut: checkOut, GuestCount: 1,
	}); err != nil {
		t.Fatalf("UpdateStay failed: %v", err)
	}

	var expenses []models.Expense
	db.Where("stay_id = ?", stay.ID).Find(&expenses)
	if len(expenses) != 1 {
		t.Fatalf("expected exactly one guest fee expense, got %d", len(expenses))
	}
	if expenses[0].Amount != 60 {
		t.Fatalf("expected fee 60 after update, got %v", expenses[0].Amount)
	}
	var split models.ExpenseSplit
	if err := db.Where("expense_id = ?", expenses[0].ID).First(&split).Error; err != nil {
		t.Fatalf("split missing after update: %v", err)
	}
	if split.Amount != 60 {
		t.Fatalf("split amount should track the fee, got %v", split.Amount)
	}

	// Zero guests: expense and split disappear.
	if _, err := svc.UpdateStay(f.House, stay.ID, f.Member.ID, StayInput{
		CheckIn: checkIn, CheckOut: checkOut, GuestCount: 0,
	}); err != nil {
		t.Fatalf("UpdateStay failed: %v", err)
	}
	var count int64
	db.Model(&models.Expense{}).Where("stay_id = ?", stay.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expense should be removed when fee drops to zero, found %d", count)
	}
	db.Model(&models.ExpenseSplit{}).Count(&count)
	if count != 0 {
		t.Fatalf("splits should be removed with the expense, found %d", count)
	}
}

func TestUpdateStayOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewStayService(db)

	stay, err := svc.CreateStay(f.House, f.Member.ID, StayInput{
		CheckIn:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateStay failed: %v", err)
	}

	_, err = svc.UpdateStay(f.House, stay.ID, f.Admin.ID, StayInput{
		CheckIn:  stay.CheckIn,
		CheckOut: stay.CheckOut,
	})
	if !errors.Is(err, ErrNotStayOwner) {
		t.Fatalf("expected ErrNotStayOwner, got %v", err)
	}
}

func TestDeleteStayCleansUp(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	staySvc := NewStayService(db)
	bedSvc := NewBedSignupService(db)

	signup, err := bedSvc.ClaimBed(f.Window.ID, f.BedA.ID, f.Member.ID, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	stay, err := staySvc.CreateStay(f.House, f.Member.ID, StayInput{
		CheckIn:     time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		GuestCount:  2,
		BedSignupID: &signup.ID,
	})
	if err != nil {
		t.Fatalf("CreateStay failed: %v", err)
	}

	if err := staySvc.DeleteStay(stay.ID, f.Admin.ID); !errors.Is(err, ErrNotStayOwner) {
		t.Fatalf("expected ErrNotStayOwner for foreign delete, got %v", err)
	}

	if err := staySvc.DeleteStay(stay.ID, f.Member.ID); err != nil {
		t.Fatalf("DeleteStay failed: %v", err)
	}

	var count int64
	db.Model(&models.Stay{}).Where("id = ?", stay.ID).Count(&count)
	if count != 0 {
		t.Fatalf("stay should be deleted, found %d", count)
	}
	db.Model(&models.Expense{}).Where("stay_id = ?", stay.ID).Count(&count)
	if count != 0 {
		t.Fatalf("guest fee should be deleted with the stay, found %d", count)
	}

	var survivor models.BedSignup
	if err := db.First(&survivor, signup.ID).Error; err != nil {
		t.Fatalf("claim should survive stay deletion: %v", err)
	}
	if survivor.StayID != nil {
		t.Fatalf("claim should be detached from the deleted stay, got stay %d", *survivor.StayID)
	}
}
