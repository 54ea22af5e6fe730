package entity

import "time"

type Message struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     uint   `gorm:"index;not null"`
	UserID     uint   `gorm:"index;not null"`
	CustomerID uint   `gorm:"index;not null"`
	Body       string `gorm:"type:text;not null"`
	IsEdited   bool   `gorm:"default:false"`
	IsDeleted  bool   `gorm:"default:false"`
	// ReplyToID is stored as given by the client, existence is not enforced.
	ReplyToID *uint
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PinnedMessage rows are not deduplicated: pinning the same message twice
// creates two rows.
type PinnedMessage struct {
	ID         uint      `gorm:"primaryKey"`
	MessageID  uint      `gorm:"index;not null"`
	PinnedByID uint      `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

type Reaction struct {
	ID        uint      `gorm:"primaryKey"`
	MessageID uint      `gorm:"uniqueIndex:idx_message_user_emoji;not null"`
	UserID    uint      `gorm:"uniqueIndex:idx_message_user_emoji;not null"`
	Emoji     string    `gorm:"uniqueIndex:idx_message_user_emoji;type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type ReadReceipt struct {
	ID        uint      `gorm:"primaryKey"`
	MessageID uint      `gorm:"uniqueIndex:idx_message_user;not null"`
	UserID    uint      `gorm:"uniqueIndex:idx_message_user;not null"`
	ReadAt    time.Time `gorm:"autoCreateTime"`
}
