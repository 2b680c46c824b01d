package routes

import (
	"errors"

	"mokki-server/models"
	"mokki-server/services"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type ClaimBedInput struct {
	SignupWindowID uint  `json:"signupWindowID" validate:"required"`
	BedID          uint  `json:"bedID" validate:"required"`
	StayID         *uint `json:"stayID"`
}

// ClaimBed claims a bed for the caller in an open window. One claim per
// user per window; a second claim comes back as a 409.
func ClaimBed(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input ClaimBedInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var window models.SignupWindow
	if err := storage.DB.First(&window, input.SignupWindowID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Sign-up window not found", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, window.HouseID, userID); !ok {
		return
	}

	svc := services.NewBedSignupService(storage.DB)
	signup, err := svc.ClaimBed(input.SignupWindowID, input.BedID, userID, input.StayID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyClaimed):
			utils.CreateError(iris.StatusConflict, "Conflict", err.Error(), ctx)
		case errors.Is(err, services.ErrWindowNotOpen), errors.Is(err, services.ErrBedNotInHouse):
			utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.CreateNotFound(ctx)
		default:
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	storage.PublishHouseEvent(window.HouseID, "bed_signup", "created", signup.ID)
	ctx.JSON(signup)
}

// ReleaseBed removes the caller's own claim.
func ReleaseBed(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	signupID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid signup ID", ctx)
		return
	}

	var signup models.BedSignup
	if err := storage.DB.Preload("SignupWindow").First(&signup, signupID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Bed claim not found", ctx)
		return
	}

	svc := services.NewBedSignupService(storage.DB)
	if err := svc.ReleaseBed(signupID, userID); err != nil {
		if errors.Is(err, services.ErrNotClaimOwner) {
			utils.CreateError(iris.StatusForbidden, "Forbidden", err.Error(), ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if signup.SignupWindow != nil {
		storage.PublishHouseEvent(signup.SignupWindow.HouseID, "bed_signup", "deleted", signupID)
	}
	ctx.JSON(iris.Map{"success": true})
}

type LinkClaimInput struct {
	StayID uint `json:"stayID" validate:"required"`
}

// LinkBedClaimToStay attaches a stay to a claim made before the stay
// record existed, so the claim survives into later windows the stay spans.
func LinkBedClaimToStay(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	signupID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid signup ID", ctx)
		return
	}

	var input LinkClaimInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	svc := services.NewBedSignupService(storage.DB)
	if err := svc.LinkClaimToStay(signupID, input.StayID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotClaimEditor):
			utils.CreateError(iris.StatusForbidden, "Forbidden", err.Error(), ctx)
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.CreateError(iris.StatusNotFound, "Not Found", "Bed claim not found", ctx)
		default:
			utils.CreateInternalServerError(ctx)
		}
		return
	}
	ctx.JSON(iris.Map{"success": true})
}

// GetUserBedClaim returns the caller's claim in a window, null when they
// haven't claimed yet.
func GetUserBedClaim(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	windowID, err := ctx.Params().GetUint("windowID")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid window ID", ctx)
		return
	}

	var window models.SignupWindow
	if err := storage.DB.First(&window, windowID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Sign-up window not found", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, window.HouseID, userID); !ok {
		return
	}

	svc := services.NewBedSignupService(storage.DB)
	signup, err := svc.GetUserClaim(windowID, userID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "claim": signup})
}

// GetBedSignupHistory lists a house's recent claims, newest first.
// Accepts ?limit= (default 50, capped at 200).
func GetBedSignupHistory(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	limit := ctx.URLParamIntDefault("limit", 50)

	svc := services.NewBedSignupService(storage.DB)
	entries, err := svc.History(houseID, limit)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "history": entries})
}

// GetUserBedStats returns the caller's fairness rollup for a house: how
// often they claimed, in which rooms, which bed types, and how many
// premium beds.
func GetUserBedStats(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	svc := services.NewBedSignupService(storage.DB)
	stats, err := svc.UserBedStats(houseID, userID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "stats": stats})
}
