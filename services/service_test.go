package services

import (
	"fmt"
	"testing"
	"time"

	"mokki-server/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.House{},
		&models.HouseMember{},
		&models.Room{},
		&models.Bed{},
		&models.SignupWindow{},
		&models.BedSignup{},
		&models.Stay{},
		&models.Expense{},
		&models.ExpenseSplit{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

type fixture struct {
	Admin  models.User
	Member models.User
	House  models.House
	Loft   models.Room
	Den    models.Room
	BedA   models.Bed // loft, premium
	BedB   models.Bed // loft
	BedC   models.Bed // den
	Window models.SignupWindow
}

// seedHouse builds a two-room house with an open window for the weekend of
// Jan 6-7 2024.
func seedHouse(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{}

	f.Admin = models.User{FirstName: "Aino", LastName: "Korhonen", Email: "aino@example.com"}
	f.Member = models.User{FirstName: "Mikko", LastName: "Virtanen", Email: "mikko@example.com"}
	if err := db.Create(&f.Admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	if err := db.Create(&f.Member).Error; err != nil {
		t.Fatalf("failed to create member: %v", err)
	}

	f.House = models.House{
		Name:             "Mökki",
		InviteCode:       "cabin1",
		AdminUserID:      f.Admin.ID,
		GuestNightlyRate: 20,
		BedSignupEnabled: true,
	}
	if err := db.Create(&f.House).Error; err != nil {
		t.Fatalf("failed to create house: %v", err)
	}
	for _, userID := range []uint{f.Admin.ID, f.Member.ID} {
		if err := db.Create(&models.HouseMember{HouseID: f.House.ID, UserID: userID, Role: "member"}).Error; err != nil {
			t.Fatalf("failed to create membership: %v", err)
		}
	}

	f.Loft = models.Room{HouseID: f.House.ID, Name: "Loft", Type: "loft"}
	f.Den = models.Room{HouseID: f.House.ID, Name: "Den", Type: "private", DisplayOrder: 1}
	if err := db.Create(&f.Loft).Error; err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	if err := db.Create(&f.Den).Error; err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	f.BedA = models.Bed{RoomID: f.Loft.ID, Name: "Queen", Type: "double", IsPremium: true}
	f.BedB = models.Bed{RoomID: f.Loft.ID, Name: "Single", Type: "single", DisplayOrder: 1}
	f.BedC = models.Bed{RoomID: f.Den.ID, Name: "Bunk Top", Type: "bunk_top"}
	for _, bed := range []*models.Bed{&f.BedA, &f.BedB, &f.BedC} {
		if err := db.Create(bed).Error; err != nil {
			t.Fatalf("failed to create bed: %v", err)
		}
	}

	f.Window = models.SignupWindow{
		HouseID:            f.House.ID,
		TargetWeekendStart: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
		TargetWeekendEnd:   time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC),
		OpensAt:            time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC),
		Status:             "open",
	}
	if err := db.Create(&f.Window).Error; err != nil {
		t.Fatalf("failed to create window: %v", err)
	}

	return f
}
