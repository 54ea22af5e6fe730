package websocket

import (
	"bytes"
	"strconv"
)

// Inbound command types accepted on an active session.
const (
	CmdGetMembers               = "get_members"
	CmdGetCustomers             = "get_customers"
	CmdChatMessage              = "chat_message"
	CmdEditMessage              = "edit_message"
	CmdDeleteMessage            = "delete_message"
	CmdPinMessage               = "pin_message"
	CmdReactToMessage           = "react_to_message"
	CmdMarkAsRead               = "mark_as_read"
	CmdGetNotifications         = "get_notifications"
	CmdMarkNotificationAsRead   = "mark_notification_as_read"
	CmdMarkAllNotificationsRead = "mark_all_notifications_as_read"
)

// ID tolerates both numeric and string-encoded ids; frontends echo ids back
// in whichever form they received them.
type ID uint

func (i *ID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = 0
		return nil
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return err
	}
	*i = ID(v)
	return nil
}

type commandEnvelope struct {
	Type string `json:"type" validate:"required"`
}

type chatMessagePayload struct {
	Message    string `json:"message" validate:"required"`
	CustomerID *ID    `json:"customer_id"`
	ReplyTo    *ID    `json:"reply_to"`
}

type editMessagePayload struct {
	MessageID ID     `json:"message_id" validate:"required"`
	NewText   string `json:"new_text" validate:"required"`
}

type deleteMessagePayload struct {
	MessageID ID `json:"message_id" validate:"required"`
}

type pinMessagePayload struct {
	MessageID ID `json:"message_id" validate:"required"`
}

type reactToMessagePayload struct {
	MessageID ID     `json:"message_id" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

type markAsReadPayload struct {
	MessageID ID `json:"message_id" validate:"required"`
}

type markNotificationAsReadPayload struct {
	NotificationID ID `json:"notification_id" validate:"required"`
}
