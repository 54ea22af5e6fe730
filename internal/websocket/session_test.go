package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
)

type fakeChatUseCase struct {
	mu    sync.Mutex
	calls []string

	room       *entity.Room
	shop       *entity.Shop
	resolveErr *app_error.AppError
	joinErr    *app_error.AppError
	enterErr   *app_error.AppError

	sentBodies []string
	editedIDs  []uint
}

func (f *fakeChatUseCase) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeChatUseCase) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeChatUseCase) ResolveRoom(ctx context.Context, name string) (*entity.Room, *entity.Shop, error) {
	f.record("resolve:" + name)
	if f.resolveErr != nil {
		return nil, nil, f.resolveErr
	}
	return f.room, f.shop, nil
}

func (f *fakeChatUseCase) JoinRoom(ctx context.Context, room *entity.Room, userID uint) error {
	f.record("join")
	if f.joinErr != nil {
		return f.joinErr
	}
	return nil
}

func (f *fakeChatUseCase) EnterRoom(ctx context.Context, sess *Session) error {
	f.record("enter")
	if f.enterErr != nil {
		return f.enterErr
	}
	return nil
}

func (f *fakeChatUseCase) SendChatMessage(ctx context.Context, sess *Session, body string, customerID, replyTo *uint) {
	f.mu.Lock()
	f.sentBodies = append(f.sentBodies, body)
	f.mu.Unlock()
	f.record("send:" + body)
}

func (f *fakeChatUseCase) EditMessage(ctx context.Context, sess *Session, messageID uint, newText string) {
	f.mu.Lock()
	f.editedIDs = append(f.editedIDs, messageID)
	f.mu.Unlock()
	f.record("edit")
}

func (f *fakeChatUseCase) DeleteMessage(ctx context.Context, sess *Session, messageID uint) {
	f.record("delete")
}

func (f *fakeChatUseCase) PinMessage(ctx context.Context, sess *Session, messageID uint) {
	f.record("pin")
}

func (f *fakeChatUseCase) ReactToMessage(ctx context.Context, sess *Session, messageID uint, emoji string) {
	f.record("react:" + emoji)
}

func (f *fakeChatUseCase) MarkMessageRead(ctx context.Context, sess *Session, messageID uint) {
	f.record("mark_read")
}

func (f *fakeChatUseCase) SendMembers(ctx context.Context, sess *Session) {
	f.record("members")
}

func (f *fakeChatUseCase) SendNotifications(ctx context.Context, sess *Session) {
	f.record("notifications")
}

func (f *fakeChatUseCase) MarkNotificationRead(ctx context.Context, sess *Session, notificationID uint) {
	f.record("notification_read")
}

func (f *fakeChatUseCase) MarkAllNotificationsRead(ctx context.Context, sess *Session) {
	f.record("all_notifications_read")
}

func shopRoom() (*entity.Room, *entity.Shop) {
	shopID := uint(5)
	return &entity.Room{ID: 1, Name: "5", Kind: entity.RoomKindShop, ShopID: &shopID},
		&entity.Shop{ID: 5, Name: "plants", MerchantID: 10}
}

func customerUser() *entity.User {
	return &entity.User{ID: 20, Name: "alice", Role: string(entity.RoleCustomer)}
}

func newTestSession(svc ChatUseCase, roomName string) (*Session, *Hub) {
	hub := NewHub()
	client := NewClient("c1", 20, "alice", roomName, nil)
	user := customerUser()
	return NewSession(client, user, entity.RoleCustomer, roomName, hub, svc), hub
}

func TestRunRejectsEmptyRoomName(t *testing.T) {
	svc := &fakeChatUseCase{}
	sess, hub := newTestSession(svc, "")
	defer hub.Close()

	sess.Run(context.Background())

	assert.Equal(t, StateClosed, sess.State())
	assert.Empty(t, svc.recorded())
}

func TestRunClosesOnBadRoomName(t *testing.T) {
	svc := &fakeChatUseCase{
		resolveErr: app_error.NewAppError(http.StatusBadRequest, "invalid room name", "room-name"),
	}
	sess, hub := newTestSession(svc, "not-a-shop")
	defer hub.Close()

	sess.Run(context.Background())

	assert.Equal(t, StateClosed, sess.State())
	assert.Equal(t, []string{"resolve:not-a-shop"}, svc.recorded())
	assert.False(t, hub.IsUserOnlineInRoom("not-a-shop", 20))
}

func TestRunClosesOnRoomLookupFailure(t *testing.T) {
	svc := &fakeChatUseCase{
		resolveErr: app_error.NewAppError(http.StatusInternalServerError, "db down", "db-error"),
	}
	sess, hub := newTestSession(svc, "5")
	defer hub.Close()

	sess.Run(context.Background())

	assert.Equal(t, StateClosed, sess.State())
	assert.NotContains(t, svc.recorded(), "join")
}

func TestRunClosesWhenUnauthorized(t *testing.T) {
	// customer connecting to an admin room
	shopID := uint(5)
	svc := &fakeChatUseCase{
		room: &entity.Room{ID: 2, Name: "admin_5", Kind: entity.RoomKindAdmin, ShopID: &shopID},
	}
	sess, hub := newTestSession(svc, "admin_5")
	defer hub.Close()

	sess.Run(context.Background())

	assert.Equal(t, StateClosed, sess.State())
	assert.NotContains(t, svc.recorded(), "join")
	assert.False(t, hub.IsUserOnlineInRoom("admin_5", 20))
}

func TestRunClosesWhenEntryReplayFails(t *testing.T) {
	room, shop := shopRoom()
	svc := &fakeChatUseCase{
		room:     room,
		shop:     shop,
		enterErr: app_error.NewAppError(http.StatusInternalServerError, "history fetch failed", "db-error"),
	}
	hub := NewHub()
	defer hub.Close()

	auth := func(r *http.Request) (*entity.User, error) {
		return customerUser(), nil
	}
	handler := NewWebSocketHandler(hub, auth, svc)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat/5"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Contains(t, svcEventually(t, svc, "enter"), "join")
	assert.Eventually(t, func() bool {
		return !hub.IsUserOnlineInRoom("5", 20)
	}, time.Second, 10*time.Millisecond, "session should be torn down after replay failure")
}

// svcEventually waits until the fake has recorded the given call, then
// returns the full call log.
func svcEventually(t *testing.T, svc *fakeChatUseCase, call string) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, c := range svc.recorded() {
			if c == call {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "call %q never recorded", call)
	return svc.recorded()
}

func TestHandleCommandDispatchesInOrder(t *testing.T) {
	room, shop := shopRoom()
	svc := &fakeChatUseCase{room: room, shop: shop}
	sess, hub := newTestSession(svc, "5")
	defer hub.Close()
	sess.Room = room
	sess.Shop = shop

	sess.handleCommand([]byte(`{"type":"chat_message","message":"hello"}`))
	sess.handleCommand([]byte(`{"type":"edit_message","message_id":"7","new_text":"fixed"}`))
	sess.handleCommand([]byte(`{"type":"react_to_message","message_id":7,"emoji":"🔥"}`))
	sess.handleCommand([]byte(`{"type":"get_notifications"}`))

	assert.Equal(t, []string{"send:hello", "edit", "react:🔥", "notifications"}, svc.recorded())
	assert.Equal(t, []uint{7}, svc.editedIDs)
}

func TestHandleCommandIgnoresMalformedAndUnknown(t *testing.T) {
	room, shop := shopRoom()
	svc := &fakeChatUseCase{room: room, shop: shop}
	sess, hub := newTestSession(svc, "5")
	defer hub.Close()
	sess.Room = room
	sess.Shop = shop

	sess.handleCommand([]byte(`not json`))
	sess.handleCommand([]byte(`{"type":"chat_message"}`))            // missing message
	sess.handleCommand([]byte(`{"type":"edit_message","new_text":"x"}`)) // missing message_id
	sess.handleCommand([]byte(`{"type":"warp_drive"}`))

	assert.Empty(t, svc.recorded())
	assert.Equal(t, StateConnecting, sess.State())
}

func TestWebSocketEndToEnd(t *testing.T) {
	room, shop := shopRoom()
	svc := &fakeChatUseCase{room: room, shop: shop}
	hub := NewHub()
	defer hub.Close()

	auth := func(r *http.Request) (*entity.User, error) {
		return customerUser(), nil
	}

	handler := NewWebSocketHandler(hub, auth, svc)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat/5"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// presence goes out first
	var status MemberStatusEvent
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, EventMemberStatus, status.Type)
	assert.Equal(t, "20", status.UserID)
	assert.True(t, status.IsOnline)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"chat_message","message":"hi shop"}`)))

	assert.Eventually(t, func() bool {
		for _, call := range svc.recorded() {
			if call == "send:hi shop" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	calls := svc.recorded()
	assert.Contains(t, calls, "resolve:5")
	assert.Contains(t, calls, "join")
	assert.Contains(t, calls, "enter")
}

func TestWebSocketRejectsUnauthenticated(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	auth := func(r *http.Request) (*entity.User, error) {
		return nil, &AuthError{Message: "no token"}
	}

	handler := NewWebSocketHandler(hub, auth, &fakeChatUseCase{})
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat/5"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*gorilla.CloseError)
	require.True(t, ok, "expected close frame, got %v", err)
	assert.Equal(t, CloseUnauthenticated, closeErr.Code)
}
