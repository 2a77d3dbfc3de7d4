package resettoken

import (
	"errors"
	"time"
)

// ResetToken is a single-use password reset credential. Only the hash of the
// token handed to the user is persisted.
type ResetToken struct {
	ID        int64
	TokenHash string
	Username  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

var ErrNotFound = errors.New("reset token not found")

type RecoverRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
}

type ResetRequest struct {
	Password string `form:"password" json:"password" binding:"required,min=8"`
}
