package routes

import (
	"mokki-server/models"
	"mokki-server/services"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
)

// GetHouseWeather returns the forecast for the house's coordinates.
func GetHouseWeather(ctx iris.Context) {
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
	if err := storage.DB.First(&house, houseID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if house.Latitude == 0 && house.Longitude == 0 {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "House has no coordinates set.", ctx)
		return
	}

	svc := services.NewWeatherService(storage.Redis)
	forecast, err := svc.Forecast(ctx.Request().Context(), house.Latitude, house.Longitude)
	if err != nil {
		utils.CreateError(iris.StatusBadGateway, "Weather Unavailable", "Could not fetch the forecast.", ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "forecast": forecast})
}
