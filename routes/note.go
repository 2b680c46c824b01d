package routes

import (
	"encoding/json"

	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"
)

// GetHouseNotes lists the bulletin board, pinned notes first, then newest.
func GetHouseNotes(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var notes []models.Note
	if err := storage.DB.
		Preload("Author").
		Where("house_id = ?", houseID).
		Order("pinned DESC, created_at DESC").
		Find(&notes).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "notes": notes})
}

type NoteInput struct {
	Title  string   `json:"title" validate:"required,max=256"`
	Body   string   `json:"body" validate:"max=8192"`
	Tags   []string `json:"tags" validate:"max=10,dive,max=64"`
	Pinned bool     `json:"pinned"`
}

func CreateNote(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var input NoteInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	note := models.Note{
		HouseID:  houseID,
		AuthorID: userID,
		Title:    input.Title,
		Body:     input.Body,
		Tags:     marshalTags(input.Tags),
		Pinned:   input.Pinned,
	}
	if err := storage.DB.Create(&note).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.PublishHouseEvent(houseID, "note", "created", note.ID)
	ctx.JSON(note)
}

func UpdateNote(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	noteID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid note ID", ctx)
		return
	}

	var note models.Note
	if err := storage.DB.First(&note, noteID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Note not found", ctx)
		return
	}
	if note.AuthorID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You can only edit your own notes.", ctx)
		return
	}

	var input NoteInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	note.Title = input.Title
	note.Body = input.Body
	note.Tags = marshalTags(input.Tags)
	note.Pinned = input.Pinned
	if err := storage.DB.Save(&note).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.PublishHouseEvent(note.HouseID, "note", "updated", note.ID)
	ctx.JSON(note)
}

func DeleteNote(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	noteID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid note ID", ctx)
		return
	}

	var note models.Note
	if err := storage.DB.First(&note, noteID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Note not found", ctx)
		return
	}
	if note.AuthorID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You can only delete your own notes.", ctx)
		return
	}

	if err := storage.DB.Delete(&note).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.PublishHouseEvent(note.HouseID, "note", "deleted", note.ID)
	ctx.JSON(iris.Map{"success": true})
}

func marshalTags(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	return datatypes.JSON(raw)
}
