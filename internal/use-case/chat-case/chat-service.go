package chat_service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
	"github.com/malek283/shop-chat/internal/queue"
	chat_repo "github.com/malek283/shop-chat/internal/repo/chat"
	"github.com/malek283/shop-chat/internal/utils/types"
	"github.com/malek283/shop-chat/internal/websocket"
)

// ChatService drives the message lifecycle: persist first, then broadcast
// to the live room, then hand notification fan-out to the worker pool.
type ChatService struct {
	ChatRepo chat_repo.ChatRepoContract
	Hub      *websocket.Hub
	Producer queue.Producer

	// PreviewLen caps the message excerpt embedded in notification rows.
	PreviewLen int
}

func NewChatService(repo chat_repo.ChatRepoContract, hub *websocket.Hub, producer queue.Producer, previewLen int) ChatServiceContract {
	return &ChatService{
		ChatRepo:   repo,
		Hub:        hub,
		Producer:   producer,
		PreviewLen: previewLen,
	}
}

func (s *ChatService) ResolveRoom(ctx context.Context, name string) (*entity.Room, *entity.Shop, error) {
	room, shop, appErr := s.ChatRepo.FindOrCreateRoom(ctx, name)
	if appErr != nil {
		return nil, nil, appErr
	}
	return room, shop, nil
}

func (s *ChatService) JoinRoom(ctx context.Context, room *entity.Room, userID uint) error {
	if appErr := s.ChatRepo.AddMember(ctx, room.ID, userID); appErr != nil {
		return appErr
	}
	return nil
}

// EnterRoom replays room state to a freshly active session: customer
// arrival signalling, full message history (tombstones included), the
// member list and the user's pending notifications. A history fetch
// failure is fatal for the session; the later replay steps only log.
func (s *ChatService) EnterRoom(ctx context.Context, sess *websocket.Session) error {
	if sess.Role == entity.RoleCustomer && sess.Room.Kind == entity.RoomKindShop && sess.Shop != nil {
		s.Hub.BroadcastToRoom(sess.RoomName(), websocket.CustomerEnteredEvent{
			Type:         websocket.EventCustomerEntered,
			CustomerID:   websocket.FormatID(sess.User.ID),
			CustomerName: sess.User.Name,
		})

		s.enqueue(ctx, queue.JobCustomerEntered, types.CustomerEnteredPayload{
			RoomName:     sess.RoomName(),
			MerchantID:   sess.Shop.MerchantID,
			CustomerID:   sess.User.ID,
			CustomerName: sess.User.Name,
		}, 1)
	}

	records, appErr := s.ChatRepo.ListRoomMessages(ctx, sess.Room.ID)
	if appErr != nil {
		return appErr
	}
	for _, rec := range records {
		sess.Client.SendEventBlocking(messageEvent(rec))
	}

	s.SendMembers(ctx, sess)
	s.SendNotifications(ctx, sess)
	return nil
}

func (s *ChatService) SendChatMessage(ctx context.Context, sess *websocket.Session, body string, customerID, replyTo *uint) {
	if strings.TrimSpace(body) == "" {
		return
	}

	cust := sess.User.ID
	if customerID != nil {
		cust = *customerID
	}

	msg := &entity.Message{
		RoomID:     sess.Room.ID,
		UserID:     sess.User.ID,
		CustomerID: cust,
		Body:       body,
		ReplyToID:  replyTo,
	}
	if appErr := s.ChatRepo.CreateMessage(ctx, msg); appErr != nil {
		log.Error().Err(appErr).Str("room", sess.RoomName()).Msg("chat: message not persisted, dropping")
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), messageEvent(&chat_repo.MessageRecord{
		Message:    *msg,
		SenderName: sess.User.Name,
	}))

	s.enqueue(ctx, queue.JobNotificationFanout, types.NotificationFanoutPayload{
		RoomID:     sess.Room.ID,
		RoomName:   sess.RoomName(),
		SenderID:   sess.User.ID,
		SenderName: sess.User.Name,
		Preview:    truncateRunes(body, s.PreviewLen),
		CreatedAt:  msg.CreatedAt,
	}, 2)
}

func (s *ChatService) EditMessage(ctx context.Context, sess *websocket.Session, messageID uint, newText string) {
	if appErr := s.ChatRepo.EditMessage(ctx, messageID, sess.User.ID, newText); appErr != nil {
		s.logMutationFailure("edit_message", sess, messageID, appErr)
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), websocket.MessageEditedEvent{
		Type:      websocket.EventMessageEdited,
		MessageID: websocket.FormatID(messageID),
		NewText:   newText,
	})
}

func (s *ChatService) DeleteMessage(ctx context.Context, sess *websocket.Session, messageID uint) {
	if appErr := s.ChatRepo.SoftDeleteMessage(ctx, messageID, sess.User.ID); appErr != nil {
		s.logMutationFailure("delete_message", sess, messageID, appErr)
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), websocket.MessageDeletedEvent{
		Type:      websocket.EventMessageDeleted,
		MessageID: websocket.FormatID(messageID),
	})
}

func (s *ChatService) PinMessage(ctx context.Context, sess *websocket.Session, messageID uint) {
	if appErr := s.ChatRepo.PinMessage(ctx, messageID, sess.User.ID); appErr != nil {
		s.logMutationFailure("pin_message", sess, messageID, appErr)
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), websocket.MessagePinnedEvent{
		Type:      websocket.EventMessagePinned,
		MessageID: websocket.FormatID(messageID),
	})
}

// ReactToMessage broadcasts on every accepted command even when the
// reaction row already existed, so repeat reactions still echo.
func (s *ChatService) ReactToMessage(ctx context.Context, sess *websocket.Session, messageID uint, emoji string) {
	if appErr := s.ChatRepo.ReactToMessage(ctx, messageID, sess.User.ID, emoji); appErr != nil {
		s.logMutationFailure("react_to_message", sess, messageID, appErr)
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), websocket.MessageReactionEvent{
		Type:       websocket.EventMessageReaction,
		MessageID:  websocket.FormatID(messageID),
		Emoji:      emoji,
		SenderName: sess.User.Name,
	})
}

func (s *ChatService) MarkMessageRead(ctx context.Context, sess *websocket.Session, messageID uint) {
	if appErr := s.ChatRepo.MarkMessageRead(ctx, messageID, sess.User.ID); appErr != nil {
		s.logMutationFailure("mark_as_read", sess, messageID, appErr)
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), websocket.MessageReadEvent{
		Type:      websocket.EventMessageRead,
		MessageID: websocket.FormatID(messageID),
	})
}

// SendMembers pushes the persisted member roster to this session only.
// Shop rooms list customers, admin rooms list admins; online flags come
// from live hub presence.
func (s *ChatService) SendMembers(ctx context.Context, sess *websocket.Session) {
	members, appErr := s.ChatRepo.ListMembers(ctx, sess.Room)
	if appErr != nil {
		log.Error().Err(appErr).Str("room", sess.RoomName()).Msg("chat: failed to list members")
		return
	}

	infos := make([]websocket.MemberInfo, 0, len(members))
	for _, m := range members {
		infos = append(infos, websocket.MemberInfo{
			ID:       websocket.FormatID(m.ID),
			Name:     m.Name,
			IsOnline: s.Hub.IsUserOnlineInRoom(sess.RoomName(), m.ID),
		})
	}

	var event websocket.MemberListEvent
	if sess.Room.Kind == entity.RoomKindShop {
		event = websocket.MemberListEvent{Type: websocket.EventCustomers, Customers: infos}
	} else {
		event = websocket.MemberListEvent{Type: websocket.EventMembers, Members: infos}
	}
	sess.Client.SendEventBlocking(event)
}

func (s *ChatService) SendNotifications(ctx context.Context, sess *websocket.Session) {
	notifications, appErr := s.ChatRepo.ListUserNotifications(ctx, sess.User.ID)
	if appErr != nil {
		log.Error().Err(appErr).Uint("userID", sess.User.ID).Msg("chat: failed to list notifications")
		return
	}

	for _, n := range notifications {
		sess.Client.SendEventBlocking(websocket.NotificationEvent{
			Type:           websocket.EventNotification,
			NotificationID: websocket.FormatID(n.ID),
			Message:        n.Body,
			SenderName:     n.SenderName,
			Time:           websocket.FormatTime(n.CreatedAt),
			Read:           n.Read,
		})
	}
}

func (s *ChatService) MarkNotificationRead(ctx context.Context, sess *websocket.Session, notificationID uint) {
	if appErr := s.ChatRepo.MarkNotificationRead(ctx, notificationID, sess.User.ID); appErr != nil {
		s.logMutationFailure("notification_read", sess, notificationID, appErr)
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), websocket.NotificationReadEvent{
		Type:           websocket.EventNotificationRead,
		NotificationID: websocket.FormatID(notificationID),
	})
}

func (s *ChatService) MarkAllNotificationsRead(ctx context.Context, sess *websocket.Session) {
	if appErr := s.ChatRepo.MarkAllNotificationsRead(ctx, sess.User.ID); appErr != nil {
		log.Error().Err(appErr).Uint("userID", sess.User.ID).Msg("chat: failed to mark all notifications read")
		return
	}

	s.Hub.BroadcastToRoom(sess.RoomName(), websocket.AllNotificationsReadEvent{
		Type: websocket.EventAllNotificationsRead,
	})
}

func (s *ChatService) enqueue(ctx context.Context, jobType string, payload any, priority int) {
	job := queue.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   queue.MustMarshal(payload),
		Priority:  priority,
		Retry:     0,
		MaxRetry:  3,
		CreatedAt: time.Now().Unix(),
		ExpireAt:  time.Now().Add(10 * time.Minute).Unix(),
	}

	if err := s.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("type", jobType).Msg("chat: failed to enqueue job")
	}
}

// logMutationFailure keeps missing-row mutations silent toward the room:
// unknown ids and foreign authors are logged and dropped, never echoed.
func (s *ChatService) logMutationFailure(op string, sess *websocket.Session, id uint, appErr *app_error.AppError) {
	if appErr.IsNotFound() {
		log.Debug().Str("op", op).Uint("id", id).Uint("userID", sess.User.ID).Msg("chat: mutation target not found, ignoring")
		return
	}
	log.Error().Err(appErr).Str("op", op).Uint("id", id).Uint("userID", sess.User.ID).Msg("chat: mutation failed")
}

func messageEvent(rec *chat_repo.MessageRecord) websocket.ChatMessageEvent {
	var replyTo *string
	if rec.ReplyToID != nil {
		v := websocket.FormatID(*rec.ReplyToID)
		replyTo = &v
	}

	return websocket.ChatMessageEvent{
		Type:       websocket.EventChatMessage,
		ID:         websocket.FormatID(rec.ID),
		Message:    rec.Body,
		SenderName: rec.SenderName,
		SenderID:   websocket.FormatID(rec.UserID),
		CustomerID: websocket.FormatID(rec.CustomerID),
		ReplyTo:    replyTo,
		Time:       websocket.FormatTime(rec.CreatedAt),
		IsEdited:   rec.IsEdited,
		IsDeleted:  rec.IsDeleted,
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
