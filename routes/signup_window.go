package routes

import (
	"time"

	"mokki-server/models"
	"mokki-server/services"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
)

// promoteDueWindows flips scheduled windows whose opens_at has passed to
// open. Ran lazily on every window read so no background job is needed.
func promoteDueWindows(houseID uint) {
	storage.DB.Model(&models.SignupWindow{}).
		Where("house_id = ? AND status = ? AND opens_at <= ?", houseID, "scheduled", time.Now()).
		Update("status", "open")
}

// GetActiveSignupWindow returns the open window whose target weekend is
// nearest, enriched with the merged per-bed claim lists, or a null window
// when nothing is open.
func GetActiveSignupWindow(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	promoteDueWindows(houseID)

	var window models.SignupWindow
	result := storage.DB.
		Where("house_id = ? AND status = ?", houseID, "open").
		Order("target_weekend_start ASC").
		Limit(1).
		Find(&window)
	if result.Error != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", result.Error.Error(), ctx)
		return
	}
	if result.RowsAffected == 0 {
		ctx.JSON(iris.Map{"success": true, "window": nil})
		return
	}

	svc := services.NewBedSignupService(storage.DB)
	claims, err := svc.MergedClaims(window)
	if err != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", err.Error(), ctx)
		return
	}

	var beds []models.Bed
	storage.DB.
		Joins("JOIN rooms ON rooms.id = beds.room_id").
		Where("rooms.house_id = ?", houseID).
		Preload("Room").
		Order("beds.display_order ASC").
		Find(&beds)

	occupancy := make([]services.BedOccupancy, 0, len(beds))
	for _, bed := range beds {
		bedClaims := claims[bed.ID]
		if bedClaims == nil {
			bedClaims = []services.ClaimRecord{}
		}
		occupancy = append(occupancy, services.BedOccupancy{Bed: bed, Claims: bedClaims})
	}

	ctx.JSON(iris.Map{"success": true, "window": window, "beds": occupancy})
}

// GetNextScheduledWindow returns the nearest future scheduled window, for
// display when nothing is open yet.
func GetNextScheduledWindow(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	promoteDueWindows(houseID)

	var window models.SignupWindow
	result := storage.DB.
		Where("house_id = ? AND status = ? AND target_weekend_start >= ?", houseID, "scheduled", time.Now()).
		Order("target_weekend_start ASC").
		Limit(1).
		Find(&window)
	if result.Error != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", result.Error.Error(), ctx)
		return
	}
	if result.RowsAffected == 0 {
		ctx.JSON(iris.Map{"success": true, "window": nil})
		return
	}
	ctx.JSON(iris.Map{"success": true, "window": window})
}

// IsWindowOpenForDates reports whether an open window's target weekend
// overlaps the given range. Screens use it to decide whether to offer bed
// selection while creating a stay.
func IsWindowOpenForDates(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	checkInStr := ctx.URLParam("checkIn")
	checkOutStr := ctx.URLParam("checkOut")
	if checkInStr == "" || checkOutStr == "" {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "checkIn and checkOut are required", ctx)
		return
	}
	checkIn, err := time.Parse("2006-01-02", checkInStr)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid checkIn date format", ctx)
		return
	}
	checkOut, err := time.Parse("2006-01-02", checkOutStr)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid checkOut date format", ctx)
		return
	}

	promoteDueWindows(houseID)

	var window models.SignupWindow
	result := storage.DB.
		Where("house_id = ? AND status = ? AND target_weekend_start <= ? AND target_weekend_end >= ?",
			houseID, "open", checkOut, checkIn).
		Order("target_weekend_start ASC").
		Limit(1).
		Find(&window)
	if result.Error != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", result.Error.Error(), ctx)
		return
	}
	if result.RowsAffected == 0 {
		ctx.JSON(iris.Map{"success": true, "isOpen": false, "window": nil})
		return
	}
	ctx.JSON(iris.Map{"success": true, "isOpen": true, "window": window})
}

type CreateSignupWindowInput struct {
	HouseID            uint      `json:"houseID" validate:"required"`
	TargetWeekendStart time.Time `json:"targetWeekendStart" validate:"required"`
	TargetWeekendEnd   time.Time `json:"targetWeekendEnd" validate:"required"`
	OpensAt            time.Time `json:"opensAt" validate:"required"`
}

// CreateSignupWindow schedules a window; it opens at OpensAt or when an
// admin opens it early.
func CreateSignupWindow(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateSignupWindowInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if !input.TargetWeekendEnd.After(input.TargetWeekendStart) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "targetWeekendEnd must be after targetWeekendStart", ctx)
		return
	}

	house, ok := requireHouseAdmin(ctx, input.HouseID, userID)
	if !ok {
		return
	}
	if !house.BedSignupEnabled {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Bed sign-up is disabled for this house", ctx)
		return
	}

	window := models.SignupWindow{
		HouseID:            house.ID,
		TargetWeekendStart: input.TargetWeekendStart,
		TargetWeekendEnd:   input.TargetWeekendEnd,
		OpensAt:            input.OpensAt,
		Status:             "scheduled",
	}
	if err := storage.DB.Create(&window).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, house.ID, "create_signup_window", "signup_window", window.ID, nil, window)
	storage.PublishHouseEvent(house.ID, "signup_window", "created", window.ID)
	ctx.JSON(window)
}

// OpenSignupWindow is the admin override. Any other open window for the
// house is closed first so the steady state stays at one open window.
func OpenSignupWindow(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	windowID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid window ID", ctx)
		return
	}

	var window models.SignupWindow
	if err := storage.DB.First(&window, windowID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Sign-up window not found", ctx)
		return
	}
	house, ok := requireHouseAdmin(ctx, window.HouseID, userID)
	if !ok {
		return
	}
	if window.Status == "closed" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "A closed window cannot be reopened", ctx)
		return
	}

	before := window
	storage.DB.Model(&models.SignupWindow{}).
		Where("house_id = ? AND status = ? AND id <> ?", house.ID, "open", window.ID).
		Update("status", "closed")

	window.Status = "open"
	if err := storage.DB.Save(&window).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	notifyHouseMembers(house.ID, models.Notification{
		Title:   "Bed sign-up is open",
		Message: "Claim your bed for the weekend of " + window.TargetWeekendStart.Format("Jan 2"),
		Type:    "window_opened",
		RefID:   window.ID,
		RefType: "signup_window",
	})

	utils.Audit(ctx, house.ID, "open_signup_window", "signup_window", window.ID, before, window)
	storage.PublishHouseEvent(house.ID, "signup_window", "updated", window.ID)
	ctx.JSON(window)
}

func CloseSignupWindow(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	windowID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid window ID", ctx)
		return
	}

	var window models.SignupWindow
	if err := storage.DB.First(&window, windowID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Sign-up window not found", ctx)
		return
	}
	house, ok := requireHouseAdmin(ctx, window.HouseID, userID)
	if !ok {
		return
	}

	before := window
	window.Status = "closed"
	if err := storage.DB.Save(&window).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, house.ID, "close_signup_window", "signup_window", window.ID, before, window)
	storage.PublishHouseEvent(house.ID, "signup_window", "updated", window.ID)
	ctx.JSON(window)
}

func notifyHouseMembers(houseID uint, template models.Notification) {
	var members []models.HouseMember
	if err := storage.DB.Where("house_id = ?", houseID).Find(&members).Error; err != nil {
		return
	}
	for _, member := range members {
		notification := template
		notification.UserID = member.UserID
		storage.DB.Create(&notification)
	}
}
