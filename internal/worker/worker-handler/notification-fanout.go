package worker_handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/malek283/shop-chat/internal/entity"
	"github.com/malek283/shop-chat/internal/utils/types"
	"github.com/malek283/shop-chat/internal/websocket"
)

// HandleNotificationFanout writes one notification row per room member
// except the sender, and pushes it live to members currently connected to
// the room. Offline members pick theirs up on next room entry.
func (wh *WorkerHandler) HandleNotificationFanout(ctx context.Context, raw json.RawMessage) error {
	var payload types.NotificationFanoutPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid fanout payload: %w", err)
	}

	memberIDs, appErr := wh.ChatRepo.ListMemberIDs(ctx, payload.RoomID)
	if appErr != nil {
		return fmt.Errorf("fanout member lookup: %w", appErr)
	}

	body := fmt.Sprintf("New message from %s: %s", payload.SenderName, payload.Preview)

	var failed int
	for _, memberID := range memberIDs {
		if memberID == payload.SenderID {
			continue
		}

		n := &entity.Notification{
			UserID:     memberID,
			Body:       body,
			SenderName: payload.SenderName,
		}
		if appErr := wh.ChatRepo.CreateNotification(ctx, n); appErr != nil {
			log.Error().Err(appErr).Uint("userID", memberID).Msg("fanout: notification not persisted")
			failed++
			continue
		}

		if wh.Ws.IsUserOnlineInRoom(payload.RoomName, memberID) {
			wh.Ws.SendToUserInRoom(payload.RoomName, memberID, websocket.NotificationEvent{
				Type:           websocket.EventNotification,
				NotificationID: websocket.FormatID(n.ID),
				Message:        n.Body,
				SenderName:     n.SenderName,
				Time:           websocket.FormatTime(n.CreatedAt),
				Read:           false,
			})
		}
	}

	if failed > 0 {
		return fmt.Errorf("fanout: %d of %d notifications not persisted", failed, len(memberIDs))
	}
	return nil
}

// HandleCustomerEntered notifies a shop owner that a customer walked into
// their shop room.
func (wh *WorkerHandler) HandleCustomerEntered(ctx context.Context, raw json.RawMessage) error {
	var payload types.CustomerEnteredPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid customer entered payload: %w", err)
	}

	n := &entity.Notification{
		UserID:     payload.MerchantID,
		Body:       fmt.Sprintf("%s has entered your shop", payload.CustomerName),
		SenderName: payload.CustomerName,
	}
	if appErr := wh.ChatRepo.CreateNotification(ctx, n); appErr != nil {
		return fmt.Errorf("customer entered notification: %w", appErr)
	}

	if wh.Ws.IsUserOnlineInRoom(payload.RoomName, payload.MerchantID) {
		wh.Ws.SendToUserInRoom(payload.RoomName, payload.MerchantID, websocket.NotificationEvent{
			Type:           websocket.EventNotification,
			NotificationID: websocket.FormatID(n.ID),
			Message:        n.Body,
			SenderName:     n.SenderName,
			Time:           websocket.FormatTime(n.CreatedAt),
			Read:           false,
		})
	}

	return nil
}
