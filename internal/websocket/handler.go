package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: limit your cors, don't get true so easy in production
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades connections and hands them to a fresh Session.
type WebSocketHandler struct {
	Hub           *Hub
	authenticator AuthenticatorFunc
	svc           ChatUseCase
}

func NewWebSocketHandler(hub *Hub, authenticator AuthenticatorFunc, svc ChatUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		Hub:           hub,
		authenticator: authenticator,
		svc:           svc,
	}
}

// HandleWS serves one connection for one room. Rejections use the close
// codes: 4001 unauthenticated, 4003 unauthorized, 4004 bad room name.
func (h *WebSocketHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomName := h.extractRoomName(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	user, err := h.authenticator(r)
	if err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("ws: unauthenticated connection attempt")
		rejectConn(conn, CloseUnauthenticated, "authentication required")
		return
	}

	role, err := user.AccountRole()
	if err != nil {
		log.Warn().Err(err).Uint("userID", user.ID).Msg("ws: account with unknown role")
		rejectConn(conn, CloseUnauthorizedRoom, "unauthorized access")
		return
	}

	client := NewClient(uuid.New().String(), user.ID, user.Name, roomName, conn)
	session := NewSession(client, user, role, roomName, h.Hub, h.svc)
	session.Run(r.Context())
}

func (h *WebSocketHandler) extractRoomName(r *http.Request) string {
	// Try query parameter first
	roomName := r.URL.Query().Get("room")
	if roomName != "" {
		return roomName
	}

	// Then URL path: /ws/chat/{roomName}
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) >= 2 && pathParts[len(pathParts)-2] == "chat" {
		return pathParts[len(pathParts)-1]
	}

	return ""
}

func rejectConn(conn *gorilla.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	msg := gorilla.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(gorilla.CloseMessage, msg, deadline)
	_ = conn.Close()
}
