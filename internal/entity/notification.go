package entity

import "time"

// Notification rows accumulate for a user and are only ever flipped to
// read, individually or in bulk. There is no delete path.
type Notification struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"index;not null"`
	Body       string    `gorm:"type:text;not null"`
	SenderName string    `gorm:"not null"`
	Read       bool      `gorm:"default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
