package models

import "time"

// Wishlist represents an owned collection of wishes. Deleting a wishlist
// cascades to its wishes on the backend.
type Wishlist struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Emoji       string    `json:"emoji,omitempty"`
	IsPublic    bool      `json:"is_public"`
	IsDefault   bool      `json:"is_default"`
	EventDate   *string   `json:"event_date,omitempty"` // ISO date, e.g. 2026-12-31
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether the given user owns this wishlist.
func (l *Wishlist) OwnedBy(userID int64) bool {
	return l.UserID == userID
}
