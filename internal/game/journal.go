package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/domtes/chemmazz/internal/cache"
)

// logAction journals a room event for the external historian.
// Assumes lock is held by caller. No-op when Redis is not connected.
func (r *Room) logAction(actor uuid.UUID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.RoomActionRecord{
		RoomID:        r.ID,
		ActionIndex:   r.actionIndex,
		ActorSession:  actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.RoomActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomAction(ctx, rec); err != nil {
			r.errorf("publishing action %d to Redis: %v", rec.ActionIndex, err)
		}
	}(record)
}
