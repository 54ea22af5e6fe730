package worker_handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
	chat_repo "github.com/malek283/shop-chat/internal/repo/chat"
	"github.com/malek283/shop-chat/internal/utils/types"
	"github.com/malek283/shop-chat/internal/websocket"
)

type fanoutRepo struct {
	mu            sync.Mutex
	memberIDs     []uint
	memberErr     *app_error.AppError
	notifications []*entity.Notification
	failForUser   uint
	nextID        uint
}

func (r *fanoutRepo) FindOrCreateRoom(ctx context.Context, name string) (*entity.Room, *entity.Shop, *app_error.AppError) {
	return nil, nil, nil
}
func (r *fanoutRepo) AddMember(ctx context.Context, roomID, userID uint) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) ListMembers(ctx context.Context, room *entity.Room) ([]*entity.User, *app_error.AppError) {
	return nil, nil
}
func (r *fanoutRepo) ListMemberIDs(ctx context.Context, roomID uint) ([]uint, *app_error.AppError) {
	if r.memberErr != nil {
		return nil, r.memberErr
	}
	return r.memberIDs, nil
}
func (r *fanoutRepo) CreateMessage(ctx context.Context, msg *entity.Message) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) ListRoomMessages(ctx context.Context, roomID uint) ([]*chat_repo.MessageRecord, *app_error.AppError) {
	return nil, nil
}
func (r *fanoutRepo) EditMessage(ctx context.Context, messageID, authorID uint, newBody string) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) SoftDeleteMessage(ctx context.Context, messageID, authorID uint) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) PinMessage(ctx context.Context, messageID, userID uint) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) ReactToMessage(ctx context.Context, messageID, userID uint, emoji string) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) MarkMessageRead(ctx context.Context, messageID, userID uint) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) CreateNotification(ctx context.Context, n *entity.Notification) *app_error.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failForUser != 0 && n.UserID == r.failForUser {
		return app_error.NewAppError(http.StatusInternalServerError, "insert failed", "db-error")
	}
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, n)
	return nil
}
func (r *fanoutRepo) ListUserNotifications(ctx context.Context, userID uint) ([]*entity.Notification, *app_error.AppError) {
	return nil, nil
}
func (r *fanoutRepo) MarkNotificationRead(ctx context.Context, notificationID, userID uint) *app_error.AppError {
	return nil
}
func (r *fanoutRepo) MarkAllNotificationsRead(ctx context.Context, userID uint) *app_error.AppError {
	return nil
}

func recvFrame(t *testing.T, c *websocket.Client) map[string]any {
	t.Helper()
	select {
	case data := <-c.Send:
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		return decoded
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func TestHandleNotificationFanout(t *testing.T) {
	repo := &fanoutRepo{memberIDs: []uint{10, 20, 30}}
	hub := websocket.NewHub()
	defer hub.Close()

	// merchant (10) is live in the room, member 30 is offline
	online := websocket.NewClient("c1", 10, "bob", "5", nil)
	hub.Register("5", online)

	wh := NewWorkerHandler(context.Background(), nil, hub, repo)
	payload, _ := json.Marshal(types.NotificationFanoutPayload{
		RoomID:     1,
		RoomName:   "5",
		SenderID:   20,
		SenderName: "alice",
		Preview:    "hi there",
		CreatedAt:  time.Now(),
	})

	require.NoError(t, wh.HandleNotificationFanout(context.Background(), payload))

	// rows for everyone but the sender
	require.Len(t, repo.notifications, 2)
	recipients := []uint{repo.notifications[0].UserID, repo.notifications[1].UserID}
	assert.ElementsMatch(t, []uint{10, 30}, recipients)
	assert.Equal(t, "New message from alice: hi there", repo.notifications[0].Body)

	// live push only for the online member
	frame := recvFrame(t, online)
	assert.Equal(t, "notification", frame["type"])
	assert.Equal(t, "New message from alice: hi there", frame["message"])
	assert.Equal(t, false, frame["read"])
}

func TestHandleNotificationFanoutPartialFailureReturnsError(t *testing.T) {
	repo := &fanoutRepo{memberIDs: []uint{10, 30}, failForUser: 30}
	hub := websocket.NewHub()
	defer hub.Close()

	wh := NewWorkerHandler(context.Background(), nil, hub, repo)
	payload, _ := json.Marshal(types.NotificationFanoutPayload{
		RoomID: 1, RoomName: "5", SenderID: 20, SenderName: "alice", Preview: "x",
	})

	err := wh.HandleNotificationFanout(context.Background(), payload)
	require.Error(t, err)
	// the successful row is not rolled back
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, uint(10), repo.notifications[0].UserID)
}

func TestHandleNotificationFanoutInvalidPayload(t *testing.T) {
	wh := NewWorkerHandler(context.Background(), nil, nil, &fanoutRepo{})
	assert.Error(t, wh.HandleNotificationFanout(context.Background(), json.RawMessage(`{bad`)))
}

func TestHandleCustomerEntered(t *testing.T) {
	repo := &fanoutRepo{}
	hub := websocket.NewHub()
	defer hub.Close()

	merchant := websocket.NewClient("c1", 10, "bob", "5", nil)
	hub.Register("5", merchant)

	wh := NewWorkerHandler(context.Background(), nil, hub, repo)
	payload, _ := json.Marshal(types.CustomerEnteredPayload{
		RoomName:     "5",
		MerchantID:   10,
		CustomerID:   20,
		CustomerName: "alice",
	})

	require.NoError(t, wh.HandleCustomerEntered(context.Background(), payload))

	require.Len(t, repo.notifications, 1)
	assert.Equal(t, uint(10), repo.notifications[0].UserID)
	assert.Equal(t, "alice has entered your shop", repo.notifications[0].Body)

	frame := recvFrame(t, merchant)
	assert.Equal(t, "notification", frame["type"])
	assert.Equal(t, "alice has entered your shop", frame["message"])
}

func TestHandleCustomerEnteredOfflineMerchantStillPersisted(t *testing.T) {
	repo := &fanoutRepo{}
	hub := websocket.NewHub()
	defer hub.Close()

	wh := NewWorkerHandler(context.Background(), nil, hub, repo)
	payload, _ := json.Marshal(types.CustomerEnteredPayload{
		RoomName: "5", MerchantID: 10, CustomerID: 20, CustomerName: "alice",
	})

	require.NoError(t, wh.HandleCustomerEntered(context.Background(), payload))
	require.Len(t, repo.notifications, 1)
}
