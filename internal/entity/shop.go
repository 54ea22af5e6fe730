package entity

import "time"

// Shop rows are owned by the commerce backend; the chat service only reads
// them to resolve shop rooms and their owning merchant.
type Shop struct {
	ID         uint      `gorm:"primaryKey"`
	Name       string    `gorm:"not null"`
	MerchantID uint      `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}
