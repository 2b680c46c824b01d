package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"mokki-server/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClaimBedOnePerWindow(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	if _, err := svc.ClaimBed(f.Window.ID, f.BedA.ID, f.Member.ID, nil); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	// Second claim in the same window, even for a different bed, is refused.
	_, err := svc.ClaimBed(f.Window.ID, f.BedB.ID, f.Member.ID, nil)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	var count int64
	db.Model(&models.BedSignup{}).
		Where("signup_window_id = ? AND user_id = ?", f.Window.ID, f.Member.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 claim, found %d", count)
	}
}

func TestClaimBedWindowNotOpen(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	for _, status := range []string{"scheduled", "closed"} {
		db.Model(&f.Window).Update("status", status)
		f.Window.Status = status

		_, err := svc.ClaimBed(f.Window.ID, f.BedA.ID, f.Member.ID, nil)
		if !errors.Is(err, ErrWindowNotOpen) {
			t.Fatalf("status %q: expected ErrWindowNotOpen, got %v", status, err)
		}
	}
}

func TestClaimBedWrongHouse(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	other := models.House{Name: "Other", InviteCode: "other1", AdminUserID: f.Admin.ID}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("failed to create house: %v", err)
	}
	otherRoom := models.Room{HouseID: other.ID, Name: "Spare", Type: "other"}
	if err := db.Create(&otherRoom).Error; err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	otherBed := models.Bed{RoomID: otherRoom.ID, Name: "Cot", Type: "single"}
	if err := db.Create(&otherBed).Error; err != nil {
		t.Fatalf("failed to create bed: %v", err)
	}

	_, err := svc.ClaimBed(f.Window.ID, otherBed.ID, f.Member.ID, nil)
	if !errors.Is(err, ErrBedNotInHouse) {
		t.Fatalf("expected ErrBedNotInHouse, got %v", err)
	}
}

func TestMergedClaimsIncludesOngoingStays(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	// Admin claims bed A in the first window and stays through the next
	// weekend.
	signup, err := svc.ClaimBed(f.Window.ID, f.BedA.ID, f.Admin.ID, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	stay := models.Stay{
		HouseID:     f.House.ID,
		UserID:      f.Admin.ID,
		CheckIn:     time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2024, 1, 14, 11, 0, 0, 0, time.UTC),
		BedSignupID: &signup.ID,
	}
	if err := db.Create(&stay).Error; err != nil {
		t.Fatalf("failed to create stay: %v", err)
	}
	if err := svc.LinkClaimToStay(signup.ID, stay.ID, f.Admin.ID); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	nextWindow := models.SignupWindow{
		HouseID:            f.House.ID,
		TargetWeekendStart: time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
		TargetWeekendEnd:   time.Date(2024, 1, 14, 23, 59, 59, 0, time.UTC),
		OpensAt:            time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC),
		Status:             "open",
	}
	if err := db.Create(&nextWindow).Error; err != nil {
		t.Fatalf("failed to create window: %v", err)
	}

	// Member claims bed B directly in the next window.
	if _, err := svc.ClaimBed(nextWindow.ID, f.BedB.ID, f.Member.ID, nil); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	claims, err := svc.MergedClaims(nextWindow)
	if err != nil {
		t.Fatalf("MergedClaims failed: %v", err)
	}

	bedAClaims := claims[f.BedA.ID]
	if len(bedAClaims) != 1 {
		t.Fatalf("expected 1 claim on bed A, got %d", len(bedAClaims))
	}
	if bedAClaims[0].ClaimType != ClaimTypeOngoingStay {
		t.Fatalf("expected ongoing_stay claim, got %q", bedAClaims[0].ClaimType)
	}
	if bedAClaims[0].UserID != f.Admin.ID {
		t.Fatalf("expected claim for admin, got user %d", bedAClaims[0].UserID)
	}

	bedBClaims := claims[f.BedB.ID]
	if len(bedBClaims) != 1 || bedBClaims[0].ClaimType != ClaimTypeWindow {
		t.Fatalf("expected single window claim on bed B, got %+v", bedBClaims)
	}
}

func TestMergedClaimsDeduplicates(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	signup, err := svc.ClaimBed(f.Window.ID, f.BedA.ID, f.Admin.ID, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	stay := models.Stay{
		HouseID:     f.House.ID,
		UserID:      f.Admin.ID,
		CheckIn:     time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2024, 1, 14, 11, 0, 0, 0, time.UTC),
		BedSignupID: &signup.ID,
	}
	if err := db.Create(&stay).Error; err != nil {
		t.Fatalf("failed to create stay: %v", err)
	}
	if err := svc.LinkClaimToStay(signup.ID, stay.ID, f.Admin.ID); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	nextWindow := models.SignupWindow{
		HouseID:            f.House.ID,
		TargetWeekendStart: time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
		TargetWeekendEnd:   time.Date(2024, 1, 14, 23, 59, 59, 0, time.UTC),
		OpensAt:            time.Date(2024, 1, 8, 18, 0, 0, 0, time.UTC),
		Status:             "open",
	}
	if err := db.Create(&nextWindow).Error; err != nil {
		t.Fatalf("failed to create window: %v", err)
	}

	// The admin also claims the same bed directly in the next window; the
	// ongoing stay must not produce a second entry for them.
	if _, err := svc.ClaimBed(nextWindow.ID, f.BedA.ID, f.Admin.ID, nil); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	claims, err := svc.MergedClaims(nextWindow)
	if err != nil {
		t.Fatalf("MergedClaims failed: %v", err)
	}
	bedAClaims := claims[f.BedA.ID]
	if len(bedAClaims) != 1 {
		t.Fatalf("expected deduplicated single claim, got %d", len(bedAClaims))
	}
	if bedAClaims[0].ClaimType != ClaimTypeWindow {
		t.Fatalf("window claim should win over ongoing stay, got %q", bedAClaims[0].ClaimType)
	}
}

func TestReleaseBedOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	signup, err := svc.ClaimBed(f.Window.ID, f.BedA.ID, f.Member.ID, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := svc.ReleaseBed(signup.ID, f.Admin.ID); !errors.Is(err, ErrNotClaimOwner) {
		t.Fatalf("expected ErrNotClaimOwner, got %v", err)
	}

	var count int64
	db.Model(&models.BedSignup{}).Where("id = ?", signup.ID).Count(&count)
	if count != 1 {
		t.Fatalf("claim should survive a denied release, found %d", count)
	}

	if err := svc.ReleaseBed(signup.ID, f.Member.ID); err != nil {
		t.Fatalf("owner release failed: %v", err)
	}
	db.Model(&models.BedSignup{}).Where("id = ?", signup.ID).Count(&count)
	if count != 0 {
		t.Fatalf("claim should be gone, found %d", count)
	}
}

func TestReleaseThenReclaimSameWindow(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	signup, err := svc.ClaimBed(f.Window.ID, f.BedA.ID, f.Member.ID, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := svc.ReleaseBed(signup.ID, f.Member.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// The released row must not linger in the unique index; switching to
	// another bed in the same window works.
	reclaimed, err := svc.ClaimBed(f.Window.ID, f.BedB.ID, f.Member.ID, nil)
	if err != nil {
		t.Fatalf("re-claim after release failed: %v", err)
	}
	if reclaimed.BedID != f.BedB.ID {
		t.Fatalf("expected new claim on bed B, got bed %d", reclaimed.BedID)
	}

	var count int64
	db.Unscoped().Model(&models.BedSignup{}).
		Where("signup_window_id = ? AND user_id = ?", f.Window.ID, f.Member.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("released claim should be gone from the table, found %d rows", count)
	}
}

func TestUserBedStats(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	windows := []models.SignupWindow{f.Window}
	for i := 1; i <= 2; i++ {
		w := models.SignupWindow{
			HouseID:            f.House.ID,
			TargetWeekendStart: f.Window.TargetWeekendStart.AddDate(0, 0, 7*i),
			TargetWeekendEnd:   f.Window.TargetWeekendEnd.AddDate(0, 0, 7*i),
			OpensAt:            f.Window.OpensAt.AddDate(0, 0, 7*i),
			Status:             "open",
		}
		if err := db.Create(&w).Error; err != nil {
			t.Fatalf("failed to create window: %v", err)
		}
		windows = append(windows, w)
	}

	// Two loft weekends (one premium) and one in the den.
	beds := []uint{f.BedA.ID, f.BedB.ID, f.BedC.ID}
	for i, w := range windows {
		if _, err := svc.ClaimBed(w.ID, beds[i], f.Member.ID, nil); err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
	}

	stats, err := svc.UserBedStats(f.House.ID, f.Member.ID)
	if err != nil {
		t.Fatalf("UserBedStats failed: %v", err)
	}
	if stats.TotalClaims != 3 {
		t.Fatalf("expected 3 claims, got %d", stats.TotalClaims)
	}
	if stats.ByRoom["Loft"] != 2 || stats.ByRoom["Den"] != 1 {
		t.Fatalf("unexpected room breakdown: %v", stats.ByRoom)
	}
	if stats.ByBedType["double"] != 1 || stats.ByBedType["single"] != 1 || stats.ByBedType["bunk_top"] != 1 {
		t.Fatalf("unexpected bed type breakdown: %v", stats.ByBedType)
	}
	if stats.PremiumCount != 1 {
		t.Fatalf("expected 1 premium claim, got %d", stats.PremiumCount)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	if !isUniqueViolation(unique) {
		t.Fatal("unique violation not recognized")
	}
	if !isUniqueViolation(fmt.Errorf("create failed: %w", unique)) {
		t.Fatal("wrapped unique violation not recognized")
	}
	if isUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}) {
		t.Fatal("foreign key violation must not map to a duplicate claim")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("non-pg error must not map to a duplicate claim")
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	f := seedHouse(t, db)
	svc := NewBedSignupService(db)

	first, err := svc.ClaimBed(f.Window.ID, f.BedA.ID, f.Admin.ID, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	db.Model(first).Update("claimed_at", time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))

	second, err := svc.ClaimBed(f.Window.ID, f.BedB.ID, f.Member.ID, nil)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	db.Model(second).Update("claimed_at", time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC))

	entries, err := svc.History(f.House.ID, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SignupID != second.ID {
		t.Fatalf("expected newest claim first, got signup %d", entries[0].SignupID)
	}
	if entries[0].RoomName != "Loft" || entries[0].BedName != "Single" {
		t.Fatalf("unexpected entry context: %+v", entries[0])
	}
}
