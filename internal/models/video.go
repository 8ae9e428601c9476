package models

import "time"

// Category is a tag videos can be filtered by
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:60;not null"`
	Slug string `json:"slug" gorm:"size:60;uniqueIndex;not null"`
}

// Video is owned by a channel and addressed publicly by its WatchID.
type Video struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	WatchID      string    `json:"watch_id" gorm:"size:11;uniqueIndex;not null"`
	ChannelID    uint      `json:"channel_id" gorm:"index;not null"`
	Channel      Channel   `json:"channel" gorm:"constraint:OnDelete:CASCADE;"`
	CategoryID   *uint     `json:"category_id" gorm:"index"`
	Category     *Category `json:"category,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	Title        string    `json:"title" gorm:"size:100;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Published    bool      `json:"published" gorm:"default:false;index"`
	Views        int64     `json:"views" gorm:"default:0"`
	SubsNotified bool      `json:"-" gorm:"default:false"` // flipped once subscribers got a VI notification
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time `json:"updated_at"`

	Likes    []Channel `json:"-" gorm:"many2many:video_likes;constraint:OnDelete:CASCADE;"`
	Dislikes []Channel `json:"-" gorm:"many2many:video_dislikes;constraint:OnDelete:CASCADE;"`
}

// Ref implements Referenceable.
func (v *Video) Ref() Ref { return VideoRef(v.ID) }

// Likebar returns the share of positive ratings as a percentage. A video
// nobody rated sits at the midpoint.
func Likebar(likes, dislikes int64) float64 {
	total := likes + dislikes
	if total <= 0 {
		return 50
	}
	return 100 * float64(likes) / float64(total)
}
