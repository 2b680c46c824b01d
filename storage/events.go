package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// HouseEvent is a coarse invalidation signal. Clients subscribed to a
// house's channel re-fetch the affected resource on any event; no diffs
// are pushed.
type HouseEvent struct {
	Resource string `json:"resource"` // bed_signup, stay, expense, note, signup_window, chat_message
	Action   string `json:"action"`   // created, updated, deleted
	ID       uint   `json:"id"`
}

var eventsContext = context.Background()

func HouseChannel(houseID uint) string {
	return fmt.Sprintf("mokki:house:%d", houseID)
}

// PublishHouseEvent is best-effort: a dropped event only delays a refetch.
func PublishHouseEvent(houseID uint, resource, action string, id uint) {
	if Redis == nil {
		return
	}
	payload, err := json.Marshal(HouseEvent{Resource: resource, Action: action, ID: id})
	if err != nil {
		return
	}
	if err := Redis.Publish(eventsContext, HouseChannel(houseID), payload).Err(); err != nil {
		log.Printf("failed to publish %s event for house %d: %v", resource, houseID, err)
	}
}
