package routes

import (
	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
)

type CreateHouseInput struct {
	Name             string  `json:"name" validate:"required,max=256"`
	GuestNightlyRate float64 `json:"guestNightlyRate" validate:"min=0"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// CreateHouse makes the caller the house admin (and guest-fee recipient)
// and its first member.
func CreateHouse(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateHouseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	house := models.House{
		Name:             input.Name,
		InviteCode:       utils.GenerateShortToken(6),
		AdminUserID:      userID,
		GuestNightlyRate: input.GuestNightlyRate,
		BedSignupEnabled: true,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
	}
	if err := storage.DB.Create(&house).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	member := models.HouseMember{HouseID: house.ID, UserID: userID, Role: "admin"}
	if err := storage.DB.Create(&member).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(house)
}

type JoinHouseInput struct {
	InviteCode string `json:"inviteCode" validate:"required"`
}

func JoinHouse(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input JoinHouseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var house models.House
	if err := storage.DB.Where("invite_code = ?", input.InviteCode).First(&house).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "No house matches that invite code.", ctx)
		return
	}

	var existing int64
	storage.DB.Model(&models.HouseMember{}).
		Where("house_id = ? AND user_id = ?", house.ID, userID).
		Count(&existing)
	if existing > 0 {
		utils.CreateError(iris.StatusConflict, "Conflict", "You are already a member of this house.", ctx)
		return
	}

	member := models.HouseMember{HouseID: house.ID, UserID: userID, Role: "member"}
	if err := storage.DB.Create(&member).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "house": house})
}

func GetHouse(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var house models.House
	if err := storage.DB.Preload("Admin").First(&house, houseID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	ctx.JSON(house)
}

func GetHouseMembers(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var members []models.HouseMember
	if err := storage.DB.Preload("User").Where("house_id = ?", houseID).Find(&members).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "members": members})
}

type HouseSettingsInput struct {
	GuestNightlyRate *float64 `json:"guestNightlyRate" validate:"omitempty,min=0"`
	BedSignupEnabled *bool    `json:"bedSignupEnabled"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

// UpdateHouseSettings is admin-only and audited; rate changes affect only
// fees computed after the change.
func UpdateHouseSettings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	house, ok := requireHouseAdmin(ctx, houseID, userID)
	if !ok {
		return
	}

	var input HouseSettingsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := house
	if input.GuestNightlyRate != nil {
		house.GuestNightlyRate = *input.GuestNightlyRate
	}
	if input.BedSignupEnabled != nil {
		house.BedSignupEnabled = *input.BedSignupEnabled
	}
	if input.Latitude != nil {
		house.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		house.Longitude = *input.Longitude
	}

	if err := storage.DB.Save(&house).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, house.ID, "update_settings", "house", house.ID, before, house)
	ctx.JSON(house)
}
