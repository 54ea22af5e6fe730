package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/malek283/shop-chat/internal/access"
	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
)

// Close codes for connection-rejection errors. Always terminal, never
// retried here.
const (
	CloseUnauthenticated  = 4001
	CloseUnauthorizedRoom = 4003
	CloseBadRoom          = 4004
)

type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthorizing
	StateJoined
	StateActive
	StateClosed
)

// ChatUseCase is the session's view of the message lifecycle and
// notification layers. Implemented by the chat service.
type ChatUseCase interface {
	ResolveRoom(ctx context.Context, name string) (*entity.Room, *entity.Shop, error)
	JoinRoom(ctx context.Context, room *entity.Room, userID uint) error

	// EnterRoom performs the Active-entry sequence for a freshly joined
	// session: customer-entered signalling, history replay, member list,
	// pending notification replay.
	EnterRoom(ctx context.Context, sess *Session) error

	SendChatMessage(ctx context.Context, sess *Session, body string, customerID, replyTo *uint)
	EditMessage(ctx context.Context, sess *Session, messageID uint, newText string)
	DeleteMessage(ctx context.Context, sess *Session, messageID uint)
	PinMessage(ctx context.Context, sess *Session, messageID uint)
	ReactToMessage(ctx context.Context, sess *Session, messageID uint, emoji string)
	MarkMessageRead(ctx context.Context, sess *Session, messageID uint)
	SendMembers(ctx context.Context, sess *Session)
	SendNotifications(ctx context.Context, sess *Session)
	MarkNotificationRead(ctx context.Context, sess *Session, notificationID uint)
	MarkAllNotificationsRead(ctx context.Context, sess *Session)
}

// Session is one client connection's participation in one room:
// Connecting -> Authorizing -> Joined -> Active -> Closed. A new
// connection always starts a fresh session; nothing is retained across
// reconnects.
type Session struct {
	Client *Client
	User   *entity.User
	Role   entity.Role
	Room   *entity.Room
	Shop   *entity.Shop

	roomName string
	hub      *Hub
	svc      ChatUseCase
	validate *validator.Validate

	mu    sync.Mutex
	state SessionState

	finishOnce sync.Once
}

func NewSession(client *Client, user *entity.User, role entity.Role, roomName string, hub *Hub, svc ChatUseCase) *Session {
	return &Session{
		Client:   client,
		User:     user,
		Role:     role,
		roomName: roomName,
		hub:      hub,
		svc:      svc,
		validate: validator.New(),
		state:    StateConnecting,
	}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// RoomName returns the hub group this session belongs to.
func (s *Session) RoomName() string {
	return s.roomName
}

// Run drives the session to Active and blocks no one: the read pump owns
// the rest of the session's life.
func (s *Session) Run(ctx context.Context) {
	// Connecting: the room identifier came from the connection target.
	if s.roomName == "" {
		log.Error().Uint("userID", s.User.ID).Msg("session: missing room name in connection target")
		s.closeWithCode(CloseBadRoom, "invalid room name")
		s.setState(StateClosed)
		return
	}

	s.setState(StateAuthorizing)

	room, shop, err := s.svc.ResolveRoom(ctx, s.roomName)
	if err != nil {
		log.Error().Err(err).Str("room", s.roomName).Msg("session: failed to resolve room")
		if code := errorCode(err); code == http.StatusBadRequest {
			s.closeWithCode(CloseBadRoom, "invalid room name")
		} else {
			s.closeWithCode(gorilla.CloseInternalServerErr, "room lookup failed")
		}
		s.setState(StateClosed)
		return
	}

	if !access.Authorize(s.Role, s.User, room, shop) {
		log.Warn().Uint("userID", s.User.ID).Str("room", s.roomName).Msg("session: unauthorized for room")
		s.closeWithCode(CloseUnauthorizedRoom, "unauthorized access")
		s.setState(StateClosed)
		return
	}

	s.Room = room
	s.Shop = shop

	// Joined: persist membership, subscribe to the live room group.
	if err := s.svc.JoinRoom(ctx, room, s.User.ID); err != nil {
		log.Error().Err(err).Str("room", s.roomName).Msg("session: failed to persist membership")
		s.closeWithCode(gorilla.CloseInternalServerErr, "join failed")
		s.setState(StateClosed)
		return
	}

	s.Client.onMessage = func(data []byte) { s.handleCommand(data) }
	s.Client.onClose = func() { s.finish() }

	s.hub.Register(s.roomName, s.Client)
	s.setState(StateJoined)
	s.Client.StartWriter()

	// Active entry: presence first, then the replay sequence to this
	// connection only.
	s.setState(StateActive)
	s.hub.BroadcastToRoom(s.roomName, NewMemberStatusEvent(s.User.ID, s.User.Name, true))

	if err := s.svc.EnterRoom(ctx, s); err != nil {
		log.Error().Err(err).Str("room", s.roomName).Msg("session: room entry failed")
		s.finish()
		s.Client.Close()
		return
	}

	s.Client.StartReader()
	log.Info().Uint("userID", s.User.ID).Str("room", s.roomName).Msg("session: active")
}

// finish runs the Closed transition exactly once, on every exit path.
func (s *Session) finish() {
	s.finishOnce.Do(func() {
		reachedActive := s.State() == StateActive
		s.setState(StateClosed)

		if reachedActive {
			s.hub.BroadcastToRoom(s.roomName, NewMemberStatusEvent(s.User.ID, s.User.Name, false))
		}
		s.hub.Unregister(s.roomName, s.Client)
		log.Info().Uint("userID", s.User.ID).Str("room", s.roomName).Msg("session: closed")
	})
}

// handleCommand runs on the read pump goroutine, so one connection's
// commands are processed strictly in arrival order. Malformed or unknown
// payloads are logged and ignored; the session stays active.
func (s *Session) handleCommand(data []byte) {
	ctx := s.Client.ctx

	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("clientID", s.Client.ID).Msg("session: invalid command payload")
		return
	}

	switch env.Type {
	case CmdGetMembers, CmdGetCustomers:
		s.svc.SendMembers(ctx, s)

	case CmdChatMessage:
		var p chatMessagePayload
		if !s.decode(data, &p) {
			return
		}
		var customerID, replyTo *uint
		if p.CustomerID != nil {
			v := uint(*p.CustomerID)
			customerID = &v
		}
		if p.ReplyTo != nil {
			v := uint(*p.ReplyTo)
			replyTo = &v
		}
		s.svc.SendChatMessage(ctx, s, p.Message, customerID, replyTo)

	case CmdEditMessage:
		var p editMessagePayload
		if !s.decode(data, &p) {
			return
		}
		s.svc.EditMessage(ctx, s, uint(p.MessageID), p.NewText)

	case CmdDeleteMessage:
		var p deleteMessagePayload
		if !s.decode(data, &p) {
			return
		}
		s.svc.DeleteMessage(ctx, s, uint(p.MessageID))

	case CmdPinMessage:
		var p pinMessagePayload
		if !s.decode(data, &p) {
			return
		}
		s.svc.PinMessage(ctx, s, uint(p.MessageID))

	case CmdReactToMessage:
		var p reactToMessagePayload
		if !s.decode(data, &p) {
			return
		}
		s.svc.ReactToMessage(ctx, s, uint(p.MessageID), p.Emoji)

	case CmdMarkAsRead:
		var p markAsReadPayload
		if !s.decode(data, &p) {
			return
		}
		s.svc.MarkMessageRead(ctx, s, uint(p.MessageID))

	case CmdGetNotifications:
		s.svc.SendNotifications(ctx, s)

	case CmdMarkNotificationAsRead:
		var p markNotificationAsReadPayload
		if !s.decode(data, &p) {
			return
		}
		s.svc.MarkNotificationRead(ctx, s, uint(p.NotificationID))

	case CmdMarkAllNotificationsRead:
		s.svc.MarkAllNotificationsRead(ctx, s)

	default:
		log.Warn().Str("type", env.Type).Str("clientID", s.Client.ID).Msg("session: unknown command type ignored")
	}
}

// decode unmarshals and validates a command payload; failures are logged
// and the command is dropped without feedback to the client.
func (s *Session) decode(data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("clientID", s.Client.ID).Msg("session: malformed command payload")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		log.Warn().Err(err).Str("clientID", s.Client.ID).Msg("session: incomplete command payload ignored")
		return false
	}
	return true
}

func (s *Session) closeWithCode(code int, reason string) {
	if s.Client.Conn != nil {
		deadline := time.Now().Add(writeWait)
		msg := gorilla.FormatCloseMessage(code, reason)
		_ = s.Client.Conn.WriteControl(gorilla.CloseMessage, msg, deadline)
	}
	s.Client.Close()
}

func errorCode(err error) int {
	var appErr *app_error.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
