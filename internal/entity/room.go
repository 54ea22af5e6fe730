package entity

import "time"

type RoomKind string

const (
	RoomKindAdmin RoomKind = "admin"
	RoomKindShop  RoomKind = "shop"
)

type Room struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Kind      RoomKind  `gorm:"type:varchar(16);not null"`
	ShopID    *uint     `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// RoomMember records that a user has joined a room at least once. Rows are
// never removed on disconnect; live presence is tracked by the hub only.
type RoomMember struct {
	ID       uint      `gorm:"primaryKey"`
	RoomID   uint      `gorm:"uniqueIndex:idx_room_member;not null"`
	UserID   uint      `gorm:"uniqueIndex:idx_room_member;not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}
