package models

import "time"

// Channel is a user's public identity. Likes, subscriptions and comments are
// all made by a channel, never by the user directly.
type Channel struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	User      User       `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Name      string     `json:"name" gorm:"size:50;uniqueIndex;not null"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Subscribers []Subscription `json:"-" gorm:"foreignKey:FromChannelID"`
}

// UpdateLastLogin stamps the login time on the in-memory channel.
func (c *Channel) UpdateLastLogin(now time.Time) {
	t := now.UTC()
	c.LastLogin = &t
}

// Ref implements Referenceable.
func (c *Channel) Ref() Ref { return ChannelRef(c.ID) }
