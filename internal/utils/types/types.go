package types

import "time"

// NotificationFanoutPayload carries everything the fan-out worker needs
// to write notification rows and push them to live subscribers, without
// re-reading the message.
type NotificationFanoutPayload struct {
	RoomID     uint      `json:"room_id"`
	RoomName   string    `json:"room_name"`
	SenderID   uint      `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Preview    string    `json:"preview"`
	CreatedAt  time.Time `json:"created_at"`
}

// CustomerEnteredPayload notifies a shop owner that a customer joined
// their shop room.
type CustomerEnteredPayload struct {
	RoomName     string `json:"room_name"`
	MerchantID   uint   `json:"merchant_id"`
	CustomerID   uint   `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}
