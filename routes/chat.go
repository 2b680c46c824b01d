package routes

import (
	"context"
	"fmt"
	"time"

	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
)

// GetHouseChat returns the last 100 messages in chronological order.
// Expired messages are dropped from the result and cleaned up lazily.
func GetHouseChat(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	storage.DB.
		Where("house_id = ? AND expires_at IS NOT NULL AND expires_at <= ?", houseID, time.Now()).
		Delete(&models.ChatMessage{})

	var messages []models.ChatMessage
	if err := storage.DB.
		Preload("Sender").
		Where("house_id = ?", houseID).
		Order("created_at DESC").
		Limit(100).
		Find(&messages).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	ctx.JSON(iris.Map{"success": true, "messages": messages})
}

type SendChatMessageInput struct {
	Content    string `json:"content" validate:"required,max=4096"`
	Color      string `json:"color" validate:"max=12"`
	TTLMinutes int    `json:"ttlMinutes" validate:"min=0,max=10080"`
}

func SendChatMessage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var input SendChatMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	message := models.ChatMessage{
		HouseID:  houseID,
		SenderID: userID,
		Content:  input.Content,
		Color:    input.Color,
	}
	if input.TTLMinutes > 0 {
		expiresAt := time.Now().Add(time.Duration(input.TTLMinutes) * time.Minute)
		message.ExpiresAt = &expiresAt
	}
	if err := storage.DB.Create(&message).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("Sender").First(&message, message.ID)
	storage.PublishHouseEvent(houseID, "chat_message", "created", message.ID)
	ctx.JSON(message)
}

// SetTypingIndicator marks the caller as typing in the house chat for a few
// seconds. Stored in Redis with a TTL so stale indicators disappear on
// their own.
func SetTypingIndicator(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	if storage.Redis != nil {
		key := fmt.Sprintf("chat:typing:%d:%d", houseID, userID)
		storage.Redis.Set(context.Background(), key, "1", 8*time.Second)
	}
	ctx.JSON(iris.Map{"success": true})
}

// GetTypingIndicators lists the user IDs currently typing in the chat.
func GetTypingIndicators(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	typing := []uint{}
	if storage.Redis != nil {
		pattern := fmt.Sprintf("chat:typing:%d:*", houseID)
		keys, err := storage.Redis.Keys(context.Background(), pattern).Result()
		if err == nil {
			for _, key := range keys {
				var hID, uID uint
				if _, err := fmt.Sscanf(key, "chat:typing:%d:%d", &hID, &uID); err == nil && uID != userID {
					typing = append(typing, uID)
				}
			}
		}
	}
	ctx.JSON(iris.Map{"success": true, "typing": typing})
}
