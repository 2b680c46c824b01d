package routes

import (
	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
)

// PlatformStats is the cross-house rollup for platform operators.
func PlatformStats(ctx iris.Context) {
	var users, houses, stays, claims int64
	storage.DB.Model(&models.User{}).Count(&users)
	storage.DB.Model(&models.House{}).Count(&houses)
	storage.DB.Model(&models.Stay{}).Count(&stays)
	storage.DB.Model(&models.BedSignup{}).Count(&claims)

	ctx.JSON(iris.Map{
		"users":     users,
		"houses":    houses,
		"stays":     stays,
		"bedClaims": claims,
	})
}

// AdminHouseStats is a quick operational rollup for a house.
func AdminHouseStats(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseAdmin(ctx, houseID, userID); !ok {
		return
	}

	var members, stays, windows, claims, expenses int64
	storage.DB.Model(&models.HouseMember{}).Where("house_id = ?", houseID).Count(&members)
	storage.DB.Model(&models.Stay{}).Where("house_id = ?", houseID).Count(&stays)
	storage.DB.Model(&models.SignupWindow{}).Where("house_id = ?", houseID).Count(&windows)
	storage.DB.Model(&models.BedSignup{}).
		Joins("JOIN signup_windows ON signup_windows.id = bed_signups.signup_window_id").
		Where("signup_windows.house_id = ?", houseID).
		Count(&claims)
	storage.DB.Model(&models.Expense{}).Where("house_id = ?", houseID).Count(&expenses)

	var unsettledTotal float64
	storage.DB.Model(&models.ExpenseSplit{}).
		Joins("JOIN expenses ON expenses.id = expense_splits.expense_id").
		Where("expenses.house_id = ? AND expense_splits.settled = ?", houseID, false).
		Select("COALESCE(SUM(expense_splits.amount), 0)").
		Scan(&unsettledTotal)

	ctx.JSON(iris.Map{
		"members":        members,
		"stays":          stays,
		"signupWindows":  windows,
		"bedClaims":      claims,
		"expenses":       expenses,
		"unsettledTotal": unsettledTotal,
	})
}

// AdminActivity pages through a house's audit trail, newest first.
func AdminActivity(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseAdmin(ctx, houseID, userID); !ok {
		return
	}

	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	var total int64
	storage.DB.Model(&models.AuditLog{}).Where("house_id = ?", houseID).Count(&total)

	var entries []models.AuditLog
	if err := storage.DB.
		Where("house_id = ?", houseID).
		Order("created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&entries).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, entries, page, perPage, total)
}
