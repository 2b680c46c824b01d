package services

import (
	"errors"
	"time"

	"mokki-server/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// User-facing messages. The routes layer surfaces these verbatim, so the
// text matches whether a violation is caught by the pre-check or by the
// database constraint.
var (
	ErrWindowNotOpen  = errors.New("Sign-up window is not open")
	ErrAlreadyClaimed = errors.New("You already have a bed claimed for this weekend")
	ErrNotClaimOwner  = errors.New("You can only release your own bed claim")
	ErrNotClaimEditor = errors.New("You can only update your own bed claim")
	ErrBedNotInHouse  = errors.New("Bed does not belong to this house")
)

const (
	ClaimTypeWindow      = "window"
	ClaimTypeOngoingStay = "ongoing_stay"
)

// BedSignupService owns claim allocation for signup windows.
type BedSignupService struct {
	DB *gorm.DB
}

func NewBedSignupService(db *gorm.DB) *BedSignupService {
	return &BedSignupService{DB: db}
}

// ClaimRecord is one occupant of a bed for a target weekend, either
// claimed directly in the window or inherited from an overlapping stay.
type ClaimRecord struct {
	SignupID  uint         `json:"signupID"`
	BedID     uint         `json:"bedID"`
	UserID    uint         `json:"userID"`
	StayID    *uint        `json:"stayID,omitempty"`
	ClaimType string       `json:"claimType"` // window, ongoing_stay
	ClaimedAt time.Time    `json:"claimedAt"`
	User      *models.User `json:"user,omitempty"`
}

// BedOccupancy pairs a bed with everyone holding it for the weekend.
type BedOccupancy struct {
	Bed    models.Bed    `json:"bed"`
	Claims []ClaimRecord `json:"claims"`
}

// MergedClaims builds the full claim picture for a window: claims made in
// the window itself, plus claims from earlier windows whose linked stay
// still spans this window's target weekend. A user already listed for a
// bed via one path is not duplicated via the other.
func (s *BedSignupService) MergedClaims(window models.SignupWindow) (map[uint][]ClaimRecord, error) {
	claims := map[uint][]ClaimRecord{}

	var signups []models.BedSignup
	if err := s.DB.Preload("User").
		Where("signup_window_id = ?", window.ID).
		Order("claimed_at ASC").
		Find(&signups).Error; err != nil {
		return nil, err
	}
	for _, signup := range signups {
		claims[signup.BedID] = append(claims[signup.BedID], ClaimRecord{
			SignupID:  signup.ID,
			BedID:     signup.BedID,
			UserID:    signup.UserID,
			StayID:    signup.StayID,
			ClaimType: ClaimTypeWindow,
			ClaimedAt: signup.ClaimedAt,
			User:      signup.User,
		})
	}

	// Stays linked to a claim and overlapping the target weekend keep
	// their bed visible in this window too (e.g. a week-long stay that
	// started the previous weekend).
	var stays []models.Stay
	if err := s.DB.Preload("User").
		Where("house_id = ? AND bed_signup_id IS NOT NULL AND check_in <= ? AND check_out >= ?",
			window.HouseID, window.TargetWeekendEnd, window.TargetWeekendStart).
		Find(&stays).Error; err != nil {
		return nil, err
	}

	for _, stay := range stays {
		var signup models.BedSignup
		if err := s.DB.First(&signup, *stay.BedSignupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue // claim released after the stay was created
			}
			return nil, err
		}
		if signup.SignupWindowID == window.ID {
			continue // already listed as a window claim
		}
		duplicate := slices.ContainsFunc(claims[signup.BedID], func(c ClaimRecord) bool {
			return c.UserID == stay.UserID
		})
		if duplicate {
			continue
		}
		stayID := stay.ID
		claims[signup.BedID] = append(claims[signup.BedID], ClaimRecord{
			SignupID:  signup.ID,
			BedID:     signup.BedID,
			UserID:    stay.UserID,
			StayID:    &stayID,
			ClaimType: ClaimTypeOngoingStay,
			ClaimedAt: signup.ClaimedAt,
			User:      stay.User,
		})
	}

	return claims, nil
}

// ClaimBed creates a claim for the user in the window. One claim per user
// per window; no cap on claimants per bed (couples share).
func (s *BedSignupService) ClaimBed(windowID, bedID, userID uint, stayID *uint) (*models.BedSignup, error) {
	var window models.SignupWindow
	if err := s.DB.First(&window, windowID).Error; err != nil {
		return nil, err
	}
	if window.Status != "open" {
		return nil, ErrWindowNotOpen
	}

	var bed models.Bed
	if err := s.DB.Preload("Room").First(&bed, bedID).Error; err != nil {
		return nil, err
	}
	if bed.Room == nil || bed.Room.HouseID != window.HouseID {
		return nil, ErrBedNotInHouse
	}

	var existing int64
	if err := s.DB.Model(&models.BedSignup{}).
		Where("signup_window_id = ? AND user_id = ?", windowID, userID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyClaimed
	}

	signup := models.BedSignup{
		SignupWindowID: windowID,
		BedID:          bedID,
		UserID:         userID,
		StayID:         stayID,
		ClaimedAt:      time.Now(),
	}
	if err := s.DB.Create(&signup).Error; err != nil {
		// The pre-check races with the insert; the unique index on
		// (signup_window_id, user_id) is authoritative.
		if isUniqueViolation(err) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	return &signup, nil
}

// ReleaseBed deletes the user's own claim. The delete is hard: a
// soft-deleted row would keep occupying the unique index on
// (signup_window_id, user_id) and block the user from claiming again in
// the same window.
func (s *BedSignupService) ReleaseBed(signupID, userID uint) error {
	var signup models.BedSignup
	if err := s.DB.First(&signup, signupID).Error; err != nil {
		return err
	}
	if signup.UserID != userID {
		return ErrNotClaimOwner
	}
	return s.DB.Unscoped().Delete(&signup).Error
}

// LinkClaimToStay attaches a stay to an existing claim, for the flow where
// the bed was claimed before the stay record existed.
func (s *BedSignupService) LinkClaimToStay(signupID, stayID, userID uint) error {
	var signup models.BedSignup
	if err := s.DB.First(&signup, signupID).Error; err != nil {
		return err
	}
	if signup.UserID != userID {
		return ErrNotClaimEditor
	}
	return s.DB.Model(&signup).Update("stay_id", stayID).Error
}

// GetUserClaim returns the user's claim in the window, or nil if none.
func (s *BedSignupService) GetUserClaim(windowID, userID uint) (*models.BedSignup, error) {
	var signup models.BedSignup
	err := s.DB.Preload("Bed").Preload("Bed.Room").
		Where("signup_window_id = ? AND user_id = ?", windowID, userID).
		First(&signup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &signup, nil
}

// HistoryEntry is one past claim with its room/bed context.
type HistoryEntry struct {
	SignupID     uint      `json:"signupID"`
	UserID       uint      `json:"userID"`
	UserName     string    `json:"userName"`
	RoomName     string    `json:"roomName"`
	BedName      string    `json:"bedName"`
	BedType      string    `json:"bedType"`
	IsPremium    bool      `json:"isPremium"`
	WeekendStart time.Time `json:"weekendStart"`
	ClaimedAt    time.Time `json:"claimedAt"`
}

// History lists the house's most recent claims, newest first.
func (s *BedSignupService) History(houseID uint, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	signups, err := s.houseSignups(houseID, limit, 0)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(signups))
	for _, signup := range signups {
		entry := HistoryEntry{
			SignupID:  signup.ID,
			UserID:    signup.UserID,
			ClaimedAt: signup.ClaimedAt,
		}
		if signup.User != nil {
			entry.UserName = signup.User.FirstName + " " + signup.User.LastName
		}
		if signup.Bed != nil {
			entry.BedName = signup.Bed.Name
			entry.BedType = signup.Bed.Type
			entry.IsPremium = signup.Bed.IsPremium
			if signup.Bed.Room != nil {
				entry.RoomName = signup.Bed.Room.Name
			}
		}
		if signup.SignupWindow != nil {
			entry.WeekendStart = signup.SignupWindow.TargetWeekendStart
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// BedStats is a per-user fairness rollup over past claims.
type BedStats struct {
	TotalClaims  int            `json:"totalClaims"`
	ByRoom       map[string]int `json:"byRoom"`
	ByBedType    map[string]int `json:"byBedType"`
	PremiumCount int            `json:"premiumCount"`
}

// UserBedStats aggregates all of a user's claims in the house.
func (s *BedSignupService) UserBedStats(houseID, userID uint) (BedStats, error) {
	stats := BedStats{
		ByRoom:    map[string]int{},
		ByBedType: map[string]int{},
	}

	var signups []models.BedSignup
	if err := s.DB.
		Joins("JOIN beds ON beds.id = bed_signups.bed_id").
		Joins("JOIN rooms ON rooms.id = beds.room_id").
		Where("rooms.house_id = ? AND bed_signups.user_id = ?", houseID, userID).
		Preload("Bed").Preload("Bed.Room").
		Find(&signups).Error; err != nil {
		return stats, err
	}

	for _, signup := range signups {
		stats.TotalClaims++
		if signup.Bed == nil {
			continue
		}
		if signup.Bed.Room != nil {
			stats.ByRoom[signup.Bed.Room.Name]++
		}
		stats.ByBedType[signup.Bed.Type]++
		if signup.Bed.IsPremium {
			stats.PremiumCount++
		}
	}
	return stats, nil
}

func (s *BedSignupService) houseSignups(houseID uint, limit, offset int) ([]models.BedSignup, error) {
	var signups []models.BedSignup
	err := s.DB.
		Joins("JOIN beds ON beds.id = bed_signups.bed_id").
		Joins("JOIN rooms ON rooms.id = beds.room_id").
		Where("rooms.house_id = ?", houseID).
		Preload("User").Preload("Bed").Preload("Bed.Room").Preload("SignupWindow").
		Order("bed_signups.claimed_at DESC").
		Limit(limit).Offset(offset).
		Find(&signups).Error
	return signups, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
