package hub_handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	app_error "github.com/malek283/shop-chat/internal/errors"
	"github.com/malek283/shop-chat/internal/handlers"
	"github.com/malek283/shop-chat/internal/middleware"
	"github.com/malek283/shop-chat/internal/websocket"
)

type HubHandler struct {
	Hub *websocket.Hub
}

func NewHubHandler(hub *websocket.Hub) *HubHandler {
	return &HubHandler{
		Hub: hub,
	}
}

func requestID(r *http.Request) string {
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		return "unknown"
	}
	return reqID
}

func userIDParam(r *http.Request) (uint, *app_error.AppError) {
	raw := chi.URLParam(r, "userId")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, app_error.NewAppError(http.StatusBadRequest, "invalid user id", "user-id-param")
	}
	return uint(id), nil
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "shop-chat",
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats := h.Hub.GetHubStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("get websocket stats", stats, requestID(r)))
	return nil
}

// Room handlers

func (h *HubHandler) HandleGetRoomStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomName := chi.URLParam(r, "roomName")
	stats := h.Hub.GetRoomStats(roomName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("get websocket room stats", stats, requestID(r)))
	return nil
}

func (h *HubHandler) HandleGetRoomClients(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomName := chi.URLParam(r, "roomName")
	clients := h.Hub.GetRoomClients(roomName)

	type ClientInfo struct {
		ID          string    `json:"id"`
		UserID      uint      `json:"user_id"`
		UserName    string    `json:"user_name"`
		ConnectedAt time.Time `json:"connected_at"`
		LastSeen    time.Time `json:"last_seen"`
	}

	var clientList []ClientInfo
	for _, client := range clients {
		clientList = append(clientList, ClientInfo{
			ID:          client.ID,
			UserID:      client.UserID,
			UserName:    client.UserName,
			ConnectedAt: client.ConnectedAt,
			LastSeen:    client.GetLastSeen(),
		})
	}

	resp := map[string]any{
		"room":    roomName,
		"count":   len(clientList),
		"clients": clientList,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("successfully get room clients", resp, requestID(r)))
	return nil
}

// HandleBroadcastToRoom pushes an operator announcement to every client
// in the room. It bypasses persistence: announcements are not messages
// and leave no history.
func (h *HubHandler) HandleBroadcastToRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomName := chi.URLParam(r, "roomName")

	var payload struct {
		Content string         `json:"content"`
		Data    map[string]any `json:"data"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid request body", "request-body-broadcast")
	}

	if payload.Content == "" {
		return app_error.NewAppError(http.StatusBadRequest, "Content is required", "payload-content-missing")
	}

	h.Hub.BroadcastToRoom(roomName, websocket.NewSystemEvent(payload.Content, payload.Data))

	resp := map[string]any{
		"status":    "sent",
		"room":      roomName,
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("broadcast sent to room", resp, requestID(r)))
	return nil
}

// User handlers

// HandleBroadcastToUser pushes an operator announcement to every
// connection the user currently has, across all rooms.
func (h *HubHandler) HandleBroadcastToUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := userIDParam(r)
	if appErr != nil {
		return appErr
	}

	var payload struct {
		Content string         `json:"content"`
		Data    map[string]any `json:"data"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "invalid request body", "request-body-broadcast-user")
	}

	if payload.Content == "" {
		return app_error.NewAppError(http.StatusBadRequest, "Content is required", "payload-content-missing")
	}

	h.Hub.BroadcastToUser(userID, websocket.NewSystemEvent(payload.Content, payload.Data))

	resp := map[string]any{
		"status":    "sent",
		"user_id":   userID,
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("broadcast sent to user", resp, requestID(r)))
	return nil
}

func (h *HubHandler) HandleKickUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomName := chi.URLParam(r, "roomName")

	var payload struct {
		UserID uint   `json:"user_id"`
		Reason string `json:"reason"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "invalid request body", "request-body-kick-user")
	}

	clients := h.Hub.GetRoomClients(roomName)
	kicked := 0

	for _, client := range clients {
		if client.UserID == payload.UserID {
			client.SendEvent(websocket.NewSystemEvent(
				fmt.Sprintf("You have been removed from the room. Reason: %s", payload.Reason),
				map[string]any{"action": "kicked"},
			))
			client.Close()
			kicked++
		}
	}

	resp := map[string]any{
		"status":         "success",
		"kicked_clients": kicked,
		"user_id":        payload.UserID,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("successfully kicked user", resp, requestID(r)))
	return nil
}

func (h *HubHandler) HandleGetUserStatus(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := userIDParam(r)
	if appErr != nil {
		return appErr
	}
	roomName := r.URL.Query().Get("room")

	var isOnline bool
	var activeClients int

	if roomName != "" {
		isOnline = h.Hub.IsUserOnlineInRoom(roomName, userID)
	} else {
		clients := h.Hub.GetUserClients(userID)
		activeClients = len(clients)
		isOnline = activeClients > 0
	}

	resp := map[string]any{
		"user_id":        userID,
		"online":         isOnline,
		"active_clients": activeClients,
		"room":           roomName,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("successful get user status", resp, requestID(r)))
	return nil
}

func (h *HubHandler) HandleGetUserConnections(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := userIDParam(r)
	if appErr != nil {
		return appErr
	}
	clients := h.Hub.GetUserClients(userID)

	type ConnectionInfo struct {
		ClientID    string    `json:"client_id"`
		Room        string    `json:"room"`
		ConnectedAt time.Time `json:"connected_at"`
		LastSeen    time.Time `json:"last_seen"`
		IsActive    bool      `json:"is_active"`
	}

	var connections []ConnectionInfo
	for _, client := range clients {
		connections = append(connections, ConnectionInfo{
			ClientID:    client.ID,
			Room:        client.RoomID,
			ConnectedAt: client.ConnectedAt,
			LastSeen:    client.GetLastSeen(),
			IsActive:    client.IsClientActive(),
		})
	}

	resp := map[string]any{
		"user_id":     userID,
		"count":       len(connections),
		"connections": connections,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("successfully get user connections", resp, requestID(r)))
	return nil
}

func (h *HubHandler) HandleDisconnectUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := userIDParam(r)
	if appErr != nil {
		return appErr
	}

	clients := h.Hub.GetUserClients(userID)
	for _, client := range clients {
		client.Close()
	}

	resp := map[string]any{
		"status":       "success",
		"user_id":      userID,
		"disconnected": len(clients),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(handlers.CreateResponse("successfully disconnected user", resp, requestID(r)))
	return nil
}
