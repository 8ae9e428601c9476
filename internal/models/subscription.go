package models

import "time"

// Subscription is a directed edge: Channel follows FromChannel.
type Subscription struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ChannelID     uint      `json:"channel_id" gorm:"index;uniqueIndex:idx_subscriber_followed;not null"`
	Channel       Channel   `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	FromChannelID uint      `json:"from_channel_id" gorm:"index;uniqueIndex:idx_subscriber_followed;not null"`
	FromChannel   Channel   `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt     time.Time `json:"created_at"`
}
