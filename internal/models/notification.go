package models

import (
	"fmt"
	"time"
)

// NotificationType is the two-letter code stored in notification_type
type NotificationType string

const (
	NotificationNewComment NotificationType = "CO"
	NotificationTaggedUser NotificationType = "TA"
	NotificationNewVideo   NotificationType = "VI"
)

// Label returns the human readable name of the notification type.
func (t NotificationType) Label() string {
	switch t {
	case NotificationNewComment:
		return "New Comment"
	case NotificationTaggedUser:
		return "Tagged User"
	case NotificationNewVideo:
		return "New Video"
	}
	return string(t)
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewComment, NotificationTaggedUser, NotificationNewVideo:
		return true
	}
	return false
}

// RefKind discriminates the entity a Ref points at.
type RefKind string

const (
	RefVideo   RefKind = "video"
	RefComment RefKind = "comment"
	RefChannel RefKind = "channel"
)

// Ref is a typed reference to one of the entities a notification can point at.
// Kind is the discriminator; ID is the row id in that kind's table.
type Ref struct {
	Kind RefKind `json:"type"`
	ID   uint    `json:"id"`
}

func VideoRef(id uint) Ref   { return Ref{Kind: RefVideo, ID: id} }
func CommentRef(id uint) Ref { return Ref{Kind: RefComment, ID: id} }
func ChannelRef(id uint) Ref { return Ref{Kind: RefChannel, ID: id} }

// Valid reports whether the ref has a known kind and a non-zero id.
func (r Ref) Valid() bool {
	switch r.Kind {
	case RefVideo, RefComment, RefChannel:
		return r.ID != 0
	}
	return false
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Referenceable is implemented by every entity a Ref can resolve to:
// *Video, *Comment and *Channel.
type Referenceable interface {
	Ref() Ref
}

// Notification records an event surfaced to a recipient user.
type Notification struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	NotificationType NotificationType `json:"notification_type" gorm:"size:2;not null"`
	Created          time.Time        `json:"created" gorm:"index;not null"`
	Unread           bool             `json:"unread" gorm:"default:true;index"`
	ActorID          uint             `json:"actor_id" gorm:"index;not null"`
	Actor            Channel          `json:"actor" gorm:"constraint:OnDelete:CASCADE;"`
	RecipientID      uint             `json:"recipient_id" gorm:"index;not null"`
	Recipient        User             `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	ActionType       RefKind          `json:"action_type" gorm:"size:16;not null"`
	ActionID         uint             `json:"action_id" gorm:"not null"`
	TargetType       RefKind          `json:"target_type" gorm:"size:16;not null"`
	TargetID         uint             `json:"target_id" gorm:"not null"`
}

// Action returns the reference to the entity that caused the notification.
func (n *Notification) Action() Ref { return Ref{Kind: n.ActionType, ID: n.ActionID} }

// Target returns the reference to the entity the action was applied to.
func (n *Notification) Target() Ref { return Ref{Kind: n.TargetType, ID: n.TargetID} }

// SetAction stores r in the action columns.
func (n *Notification) SetAction(r Ref) { n.ActionType, n.ActionID = r.Kind, r.ID }

// SetTarget stores r in the target columns.
func (n *Notification) SetTarget(r Ref) { n.TargetType, n.TargetID = r.Kind, r.ID }

// ResolvedNotification pairs a notification with the entities its refs point at.
// Either entity may be nil if it was deleted after the notification was written.
type ResolvedNotification struct {
	Notification
	ActionEntity Referenceable
	TargetEntity Referenceable
}

// Link returns the page a notification should open, or "" when its entities
// no longer exist.
func (r ResolvedNotification) Link() string {
	switch e := r.TargetEntity.(type) {
	case *Video:
		return "/watch?v=" + e.WatchID
	case *Channel:
		if v, ok := r.ActionEntity.(*Video); ok && v.Published {
			return "/watch?v=" + v.WatchID
		}
		return fmt.Sprintf("/channel/%d", e.ID)
	}
	return ""
}
