package routes

import (
	"errors"
	"time"

	"mokki-server/models"
	"mokki-server/services"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type StayInput struct {
	HouseID     uint      `json:"houseID" validate:"required"`
	CheckIn     time.Time `json:"checkIn" validate:"required"`
	CheckOut    time.Time `json:"checkOut" validate:"required"`
	GuestCount  int       `json:"guestCount" validate:"min=0"`
	Notes       string    `json:"notes" validate:"max=2048"`
	BedSignupID *uint     `json:"bedSignupID"`
}

// CreateStay registers a stay and materializes the guest-fee expense when
// guests come along. Nothing is persisted when the dates are invalid.
func CreateStay(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input StayInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var house models.House
	if err := storage.DB.First(&house, input.HouseID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, house.ID, userID); !ok {
		return
	}

	svc := services.NewStayService(storage.DB)
	stay, err := svc.CreateStay(house, userID, services.StayInput{
		CheckIn:     input.CheckIn,
		CheckOut:    input.CheckOut,
		GuestCount:  input.GuestCount,
		Notes:       input.Notes,
		BedSignupID: input.BedSignupID,
	})
	if err != nil {
		handleStayError(err, ctx)
		return
	}

	storage.PublishHouseEvent(house.ID, "stay", "created", stay.ID)
	ctx.JSON(stay)
}

// UpdateStay edits the caller's stay and reconciles the guest fee in
// place: amounts change, the split is never duplicated, and a fee that
// drops to zero is removed.
func UpdateStay(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	stayID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid stay ID", ctx)
		return
	}

	var stay models.Stay
	if err := storage.DB.First(&stay, stayID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Stay not found", ctx)
		return
	}
	var house models.House
	if err := storage.DB.First(&house, stay.HouseID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, house.ID, userID); !ok {
		return
	}

	var input StayInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	svc := services.NewStayService(storage.DB)
	updated, err := svc.UpdateStay(house, stayID, userID, services.StayInput{
		CheckIn:     input.CheckIn,
		CheckOut:    input.CheckOut,
		GuestCount:  input.GuestCount,
		Notes:       input.Notes,
		BedSignupID: input.BedSignupID,
	})
	if err != nil {
		handleStayError(err, ctx)
		return
	}

	storage.PublishHouseEvent(house.ID, "stay", "updated", updated.ID)
	ctx.JSON(updated)
}

// DeleteStay removes the caller's stay along with its guest-fee expense
// and detaches any bed claims pointing at it.
func DeleteStay(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	stayID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid stay ID", ctx)
		return
	}

	var stay models.Stay
	if err := storage.DB.First(&stay, stayID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Stay not found", ctx)
		return
	}

	svc := services.NewStayService(storage.DB)
	if err := svc.DeleteStay(stayID, userID); err != nil {
		handleStayError(err, ctx)
		return
	}

	storage.PublishHouseEvent(stay.HouseID, "stay", "deleted", stayID)
	ctx.JSON(iris.Map{"success": true})
}

// GetHouseStays lists a house's stays, soonest check-in first. Optional
// ?upcoming=true keeps only stays that haven't checked out yet.
func GetHouseStays(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	query := storage.DB.Preload("User").Where("house_id = ?", houseID)
	if ctx.URLParamBoolDefault("upcoming", false) {
		query = query.Where("check_out >= ?", time.Now())
	}

	var stays []models.Stay
	if err := query.Order("check_in ASC").Find(&stays).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "stays": stays})
}

// GetMyStays lists the caller's stays across all of their houses.
func GetMyStays(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var stays []models.Stay
	if err := storage.DB.
		Where("user_id = ?", userID).
		Order("check_in DESC").
		Find(&stays).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "stays": stays})
}

func handleStayError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrInvalidDates):
		utils.CreateError(iris.StatusBadRequest, "Invalid Dates", err.Error(), ctx)
	case errors.Is(err, services.ErrNotStayOwner), errors.Is(err, services.ErrNotClaimEditor):
		utils.CreateError(iris.StatusForbidden, "Forbidden", err.Error(), ctx)
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.CreateNotFound(ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}
