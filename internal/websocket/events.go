package websocket

import (
	"strconv"
	"time"
)

// Outbound event types. Every mutation mirrors its command; payloads carry
// enough state for subscribers to update without a follow-up fetch.
const (
	EventChatMessage          = "chat_message"
	EventCustomerEntered      = "customer_entered"
	EventMemberStatus         = "member_status"
	EventMessageEdited        = "message_edited"
	EventMessageDeleted       = "message_deleted"
	EventMessagePinned        = "message_pinned"
	EventMessageReaction      = "message_reaction"
	EventMessageRead          = "message_read"
	EventNotification         = "notification"
	EventNotificationRead     = "notification_read"
	EventAllNotificationsRead = "all_notifications_read"
	EventMembers              = "members"
	EventCustomers            = "customers"
	EventSystem               = "system"
)

// SystemEvent is an operator-initiated announcement pushed through the
// ops API, outside the normal command flow.
type SystemEvent struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func NewSystemEvent(message string, data map[string]any) SystemEvent {
	return SystemEvent{
		Type:    EventSystem,
		Message: message,
		Data:    data,
	}
}

type ChatMessageEvent struct {
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	Message    string  `json:"message"`
	SenderName string  `json:"sender_name"`
	SenderID   string  `json:"sender_id"`
	CustomerID string  `json:"customer_id,omitempty"`
	ReplyTo    *string `json:"reply_to,omitempty"`
	Time       string  `json:"time"`
	IsEdited   bool    `json:"is_edited,omitempty"`
	IsDeleted  bool    `json:"is_deleted,omitempty"`
}

type CustomerEnteredEvent struct {
	Type         string `json:"type"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

type MemberStatusEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	IsOnline bool   `json:"isOnline"`
}

type MessageEditedEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	NewText   string `json:"new_text"`
}

type MessageDeletedEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

type MessagePinnedEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

type MessageReactionEvent struct {
	Type       string `json:"type"`
	MessageID  string `json:"message_id"`
	Emoji      string `json:"emoji"`
	SenderName string `json:"sender_name"`
}

type MessageReadEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

type NotificationEvent struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id"`
	Message        string `json:"message"`
	SenderName     string `json:"sender_name"`
	Time           string `json:"time"`
	Read           bool   `json:"read"`
}

type NotificationReadEvent struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id"`
}

type AllNotificationsReadEvent struct {
	Type string `json:"type"`
}

type MemberInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsOnline bool   `json:"is_online"`
}

// MemberListEvent is keyed by room kind: shop rooms list "customers",
// admin rooms list "members".
type MemberListEvent struct {
	Type      string       `json:"type"`
	Members   []MemberInfo `json:"members,omitempty"`
	Customers []MemberInfo `json:"customers,omitempty"`
}

func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func NewMemberStatusEvent(userID uint, name string, online bool) MemberStatusEvent {
	return MemberStatusEvent{
		Type:     EventMemberStatus,
		UserID:   FormatID(userID),
		Name:     name,
		IsOnline: online,
	}
}
