package routes

import (
	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// GetRoomsAndBeds returns the full sleeping-space catalog for a house,
// rooms and beds in display order.
func GetRoomsAndBeds(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var rooms []models.Room
	result := storage.DB.
		Preload("Beds", func(db *gorm.DB) *gorm.DB {
			return db.Order("beds.display_order ASC")
		}).
		Where("house_id = ?", houseID).
		Order("display_order ASC").
		Find(&rooms)
	if result.Error != nil {
		utils.CreateError(iris.StatusInternalServerError, "Error", result.Error.Error(), ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "rooms": rooms})
}

type RoomInput struct {
	Name         string `json:"name" validate:"required,max=128"`
	Type         string `json:"type" validate:"required,oneof=bunk_room private loft other"`
	DisplayOrder int    `json:"displayOrder"`
}

func CreateRoom(ctx iris.Context) {
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

	var input RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	room := models.Room{
		HouseID:      house.ID,
		Name:         input.Name,
		Type:         input.Type,
		DisplayOrder: input.DisplayOrder,
	}
	if err := storage.DB.Create(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, house.ID, "create_room", "room", room.ID, nil, room)
	ctx.JSON(room)
}

type BedInput struct {
	Name         string `json:"name" validate:"required,max=128"`
	Type         string `json:"type" validate:"required,oneof=single double bunk_top bunk_bottom"`
	IsPremium    bool   `json:"isPremium"`
	DisplayOrder int    `json:"displayOrder"`
}

func CreateBed(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	roomID, err := ctx.Params().GetUint("roomID")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid room ID", ctx)
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, roomID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}
	house, ok := requireHouseAdmin(ctx, room.HouseID, userID)
	if !ok {
		return
	}

	var input BedInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	bed := models.Bed{
		RoomID:       room.ID,
		Name:         input.Name,
		Type:         input.Type,
		IsPremium:    input.IsPremium,
		DisplayOrder: input.DisplayOrder,
	}
	if err := storage.DB.Create(&bed).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, house.ID, "create_bed", "bed", bed.ID, nil, bed)
	ctx.JSON(bed)
}
