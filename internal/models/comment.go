package models

import "time"

// Comment represents a comment on a video
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	VideoID   uint      `json:"video_id" gorm:"index;not null"`
	Video     Video     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	ChannelID uint      `json:"channel_id" gorm:"index;not null"` // author
	Channel   Channel   `json:"channel" gorm:"constraint:OnDelete:CASCADE;"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// Ref implements Referenceable.
func (c *Comment) Ref() Ref { return CommentRef(c.ID) }
