package chat_repo

import (
	"context"

	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
)

// MessageRecord is a message row joined with its sender's display name,
// used for history replay.
type MessageRecord struct {
	entity.Message
	SenderName string
}

type ChatRepoContract interface {
	// FindOrCreateRoom resolves a room by name, creating it on first
	// connection. For shop rooms the owning shop is returned as well.
	FindOrCreateRoom(ctx context.Context, name string) (*entity.Room, *entity.Shop, *app_error.AppError)

	AddMember(ctx context.Context, roomID, userID uint) *app_error.AppError
	ListMembers(ctx context.Context, room *entity.Room) ([]*entity.User, *app_error.AppError)
	ListMemberIDs(ctx context.Context, roomID uint) ([]uint, *app_error.AppError)

	CreateMessage(ctx context.Context, msg *entity.Message) *app_error.AppError
	ListRoomMessages(ctx context.Context, roomID uint) ([]*MessageRecord, *app_error.AppError)
	EditMessage(ctx context.Context, messageID, authorID uint, newBody string) *app_error.AppError
	SoftDeleteMessage(ctx context.Context, messageID, authorID uint) *app_error.AppError
	PinMessage(ctx context.Context, messageID, userID uint) *app_error.AppError
	ReactToMessage(ctx context.Context, messageID, userID uint, emoji string) *app_error.AppError
	MarkMessageRead(ctx context.Context, messageID, userID uint) *app_error.AppError

	CreateNotification(ctx context.Context, n *entity.Notification) *app_error.AppError
	ListUserNotifications(ctx context.Context, userID uint) ([]*entity.Notification, *app_error.AppError)
	MarkNotificationRead(ctx context.Context, notificationID, userID uint) *app_error.AppError
	MarkAllNotificationsRead(ctx context.Context, userID uint) *app_error.AppError
}
