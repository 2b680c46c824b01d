package routes

import (
	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
)

// requireHouseMember loads the caller's membership row and stops with 403
// when they don't belong to the house. Every house-scoped handler runs
// this before touching rows.
func requireHouseMember(ctx iris.Context, houseID, userID uint) (models.HouseMember, bool) {
	var membership models.HouseMember
	if err := storage.DB.Where("house_id = ? AND user_id = ?", houseID, userID).First(&membership).Error; err != nil {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You are not a member of this house.", ctx)
		return membership, false
	}
	return membership, true
}

// requireHouseAdmin additionally checks for the admin role (or being the
// house's designated admin user).
func requireHouseAdmin(ctx iris.Context, houseID, userID uint) (models.House, bool) {
	var house models.House
	if err := storage.DB.First(&house, houseID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "House not found", ctx)
		return house, false
	}
	if house.AdminUserID == userID {
		return house, true
	}
	var membership models.HouseMember
	if err := storage.DB.Where("house_id = ? AND user_id = ? AND role = ?", houseID, userID, "admin").First(&membership).Error; err != nil {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "House admin access required.", ctx)
		return house, false
	}
	return house, true
}
