package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrSelfSubscription is returned when a channel tries to subscribe to itself.
var ErrSelfSubscription = errors.New("a channel cannot subscribe to itself")

// IsNotFound reports whether err wraps gorm.ErrRecordNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
