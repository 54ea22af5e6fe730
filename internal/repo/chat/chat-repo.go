package chat_repo

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
	"github.com/malek283/shop-chat/state"
)

const adminRoomPrefix = "admin_"

type ChatRepo struct {
	AppState *state.AppState
}

func NewChatRepo(appState *state.AppState) ChatRepoContract {
	return &ChatRepo{
		AppState: appState,
	}
}

func (r *ChatRepo) FindOrCreateRoom(ctx context.Context, name string) (*entity.Room, *entity.Shop, *app_error.AppError) {
	var room entity.Room
	err := r.AppState.DB.WithContext(ctx).Where("name = ?", name).First(&room).Error
	if err == nil {
		shop, appErr := r.roomShop(ctx, &room)
		if appErr != nil {
			return nil, nil, appErr
		}
		return &room, shop, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Str("room", name).Msg("failed to query room")
		return nil, nil, app_error.NewAppError(http.StatusInternalServerError, "failed to query room", "db-error")
	}

	// not found, lazily create from the naming convention
	newRoom := entity.Room{Name: name}
	var shop *entity.Shop
	if strings.HasPrefix(name, adminRoomPrefix) {
		newRoom.Kind = entity.RoomKindAdmin
	} else {
		shopID, convErr := strconv.ParseUint(name, 10, 64)
		if convErr != nil {
			return nil, nil, app_error.NewAppError(http.StatusBadRequest, "shop room name must be a shop id", "room-name")
		}

		var s entity.Shop
		if err := r.AppState.DB.WithContext(ctx).First(&s, uint(shopID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, app_error.NewAppError(http.StatusNotFound, "shop not found for room", "shop")
			}
			return nil, nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch shop", "db-error")
		}

		shop = &s
		newRoom.Kind = entity.RoomKindShop
		newRoom.ShopID = &s.ID
	}

	if err := r.AppState.DB.WithContext(ctx).Create(&newRoom).Error; err != nil {
		// Concurrent first joins race on the unique name index; the loser
		// re-reads the winner's row.
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			if err := r.AppState.DB.WithContext(ctx).Where("name = ?", name).First(&room).Error; err == nil {
				return &room, shop, nil
			}
		}
		log.Error().Err(err).Str("room", name).Msg("failed to create room")
		return nil, nil, app_error.NewAppError(http.StatusInternalServerError, "failed to create room", "db-error")
	}

	return &newRoom, shop, nil
}

func (r *ChatRepo) roomShop(ctx context.Context, room *entity.Room) (*entity.Shop, *app_error.AppError) {
	if room.ShopID == nil {
		return nil, nil
	}

	var shop entity.Shop
	if err := r.AppState.DB.WithContext(ctx).First(&shop, *room.ShopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "shop not found for room", "shop")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch shop", "db-error")
	}
	return &shop, nil
}

// AddMember is idempotent: a user joins a room's member set at most once
// and is never removed by the chat service.
func (r *ChatRepo) AddMember(ctx context.Context, roomID, userID uint) *app_error.AppError {
	member := entity.RoomMember{RoomID: roomID, UserID: userID}
	err := r.AppState.DB.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		FirstOrCreate(&member).Error
	if err != nil {
		log.Error().Err(err).Uint("roomID", roomID).Uint("userID", userID).Msg("failed to add room member")
		return app_error.NewAppError(http.StatusInternalServerError, "failed to add room member", "db-error")
	}
	return nil
}

// ListMembers returns the persisted member set, filtered by the role the
// room's clients care about: customers for shop rooms, admins for admin
// rooms. The filter matches every spelling the role column may hold.
func (r *ChatRepo) ListMembers(ctx context.Context, room *entity.Room) ([]*entity.User, *app_error.AppError) {
	role := entity.RoleAdmin
	if room.Kind == entity.RoomKindShop {
		role = entity.RoleCustomer
	}

	var members []*entity.User
	err := r.AppState.DB.WithContext(ctx).
		Joins("JOIN room_members ON room_members.user_id = users.id").
		Where("room_members.room_id = ? AND users.role IN ?", room.ID, role.Spellings()).
		Find(&members).Error
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch room members", "db-error")
	}

	return members, nil
}

// ListMemberIDs returns every persisted member of the room regardless of
// role, for notification fan-out.
func (r *ChatRepo) ListMemberIDs(ctx context.Context, roomID uint) ([]uint, *app_error.AppError) {
	var ids []uint
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.RoomMember{}).
		Where("room_id = ?", roomID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch room member ids", "db-error")
	}

	return ids, nil
}

func (r *ChatRepo) CreateMessage(ctx context.Context, msg *entity.Message) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Error().Err(err).Uint("roomID", msg.RoomID).Msg("failed to create message")
		return app_error.NewAppError(http.StatusInternalServerError, "failed to create message", "db-error")
	}
	return nil
}

func (r *ChatRepo) ListRoomMessages(ctx context.Context, roomID uint) ([]*MessageRecord, *app_error.AppError) {
	var records []*MessageRecord
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.Message{}).
		Select("messages.*, users.name AS sender_name").
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.room_id = ?", roomID).
		Order("messages.created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch room messages", "db-error")
	}

	return records, nil
}

// EditMessage updates body and edited flag for a message owned by authorID.
// A miss for any reason (wrong author or nonexistent id) reports not-found.
func (r *ChatRepo) EditMessage(ctx context.Context, messageID, authorID uint, newBody string) *app_error.AppError {
	res := r.AppState.DB.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ? AND user_id = ?", messageID, authorID).
		Updates(map[string]any{"body": newBody, "is_edited": true})
	if res.Error != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to edit message", "db-error")
	}
	if res.RowsAffected == 0 {
		return app_error.NewAppError(http.StatusNotFound, "message not found", "not-found")
	}
	return nil
}

func (r *ChatRepo) SoftDeleteMessage(ctx context.Context, messageID, authorID uint) *app_error.AppError {
	res := r.AppState.DB.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ? AND user_id = ?", messageID, authorID).
		Update("is_deleted", true)
	if res.Error != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to delete message", "db-error")
	}
	if res.RowsAffected == 0 {
		return app_error.NewAppError(http.StatusNotFound, "message not found", "not-found")
	}
	return nil
}

// PinMessage inserts a pin row unconditionally; pinning twice creates two
// rows.
func (r *ChatRepo) PinMessage(ctx context.Context, messageID, userID uint) *app_error.AppError {
	var msg entity.Message
	if err := r.AppState.DB.WithContext(ctx).First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return app_error.NewAppError(http.StatusNotFound, "message not found", "not-found")
		}
		return app_error.NewAppError(http.StatusInternalServerError, "failed to fetch message", "db-error")
	}

	pin := entity.PinnedMessage{MessageID: messageID, PinnedByID: userID}
	if err := r.AppState.DB.WithContext(ctx).Create(&pin).Error; err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to pin message", "db-error")
	}
	return nil
}

// ReactToMessage is idempotent per (message, user, emoji).
func (r *ChatRepo) ReactToMessage(ctx context.Context, messageID, userID uint, emoji string) *app_error.AppError {
	var msg entity.Message
	if err := r.AppState.DB.WithContext(ctx).First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return app_error.NewAppError(http.StatusNotFound, "message not found", "not-found")
		}
		return app_error.NewAppError(http.StatusInternalServerError, "failed to fetch message", "db-error")
	}

	reaction := entity.Reaction{MessageID: messageID, UserID: userID, Emoji: emoji}
	err := r.AppState.DB.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		FirstOrCreate(&reaction).Error
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to react to message", "db-error")
	}
	return nil
}

func (r *ChatRepo) MarkMessageRead(ctx context.Context, messageID, userID uint) *app_error.AppError {
	var msg entity.Message
	if err := r.AppState.DB.WithContext(ctx).First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Uint("messageID", messageID).Msg("mark as read: message does not exist")
			return app_error.NewAppError(http.StatusNotFound, "message not found", "not-found")
		}
		return app_error.NewAppError(http.StatusInternalServerError, "failed to fetch message", "db-error")
	}

	receipt := entity.ReadReceipt{MessageID: messageID, UserID: userID}
	err := r.AppState.DB.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		FirstOrCreate(&receipt).Error
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to mark message read", "db-error")
	}
	return nil
}

func (r *ChatRepo) CreateNotification(ctx context.Context, n *entity.Notification) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(n).Error; err != nil {
		log.Error().Err(err).Uint("userID", n.UserID).Msg("failed to create notification")
		return app_error.NewAppError(http.StatusInternalServerError, "failed to create notification", "db-error")
	}
	return nil
}

func (r *ChatRepo) ListUserNotifications(ctx context.Context, userID uint) ([]*entity.Notification, *app_error.AppError) {
	var notifications []*entity.Notification
	err := r.AppState.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&notifications).Error
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, "failed to fetch notifications", "db-error")
	}
	return notifications, nil
}

// MarkNotificationRead only touches notifications owned by userID.
func (r *ChatRepo) MarkNotificationRead(ctx context.Context, notificationID, userID uint) *app_error.AppError {
	res := r.AppState.DB.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if res.Error != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to mark notification read", "db-error")
	}
	if res.RowsAffected == 0 {
		log.Warn().Uint("notificationID", notificationID).Msg("notification does not exist or is not owned by user")
		return app_error.NewAppError(http.StatusNotFound, "notification not found", "not-found")
	}
	return nil
}

func (r *ChatRepo) MarkAllNotificationsRead(ctx context.Context, userID uint) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("user_id = ?", userID).
		Update("read", true).Error
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to mark notifications read", "db-error")
	}
	return nil
}
