package models

import (
	"strings"
	"time"

	"github.com/mkruglov/giftwish/internal/apierr"
)

// WishPriority represents how much the owner wants a wish
type WishPriority string

const (
	PriorityJustWant   WishPriority = "just_want"
	PriorityReallyWant WishPriority = "really_want"
)

// DefaultCurrency is used when a wish is created without an explicit currency.
const DefaultCurrency = "RUB"

// Wish represents a single giftable item inside a wishlist. Booking state is
// kept consistent by the backend: IsBooked is true exactly when
// BookedByUserID is set.
type Wish struct {
	ID             string       `json:"id"`
	WishlistID     string       `json:"wishlist_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Link           string       `json:"link,omitempty"`
	ImageURL       string       `json:"image_url,omitempty"`
	Price          *float64     `json:"price,omitempty"`
	Currency       string       `json:"currency,omitempty"`
	Priority       WishPriority `json:"priority"`
	IsBooked       bool         `json:"is_booked"`
	BookedByUserID *int64       `json:"booked_by_user_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// BookedBy reports whether the wish is currently booked by the given user.
func (w *Wish) BookedBy(userID int64) bool {
	return w.IsBooked && w.BookedByUserID != nil && *w.BookedByUserID == userID
}

// BookingConsistent reports whether the booking invariant holds:
// booked_by_user_id is set if and only if is_booked is true.
func (w *Wish) BookingConsistent() bool {
	if w.IsBooked {
		return w.BookedByUserID != nil
	}
	return w.BookedByUserID == nil
}

// Clone returns a shallow copy of the wish with its own booking pointer, so
// that independently held copies cannot alias each other's state.
func (w *Wish) Clone() *Wish {
	cp := *w
	if w.BookedByUserID != nil {
		id := *w.BookedByUserID
		cp.BookedByUserID = &id
	}
	if w.Price != nil {
		p := *w.Price
		cp.Price = &p
	}
	return &cp
}

// CreateWishRequest is the payload for creating a wish.
type CreateWishRequest struct {
	WishlistID  string       `json:"wishlist_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Link        string       `json:"link,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	Priority    WishPriority `json:"priority,omitempty"`
}

// Validate checks required fields and fills in defaults. A wish always starts
// unbooked; booking fields are not part of the creation payload.
func (r *CreateWishRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return apierr.Validation("title is required")
	}
	if r.WishlistID == "" {
		return apierr.Validation("wishlist_id is required")
	}
	if r.Priority == "" {
		r.Priority = PriorityJustWant
	}
	if r.Priority != PriorityJustWant && r.Priority != PriorityReallyWant {
		return apierr.Validation("priority must be just_want or really_want")
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	return nil
}

// UpdateWishRequest is a partial update payload. Nil fields are left
// untouched by the backend. Setting WishlistID moves the wish to another
// list.
type UpdateWishRequest struct {
	WishlistID  *string       `json:"wishlist_id,omitempty"`
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Link        *string       `json:"link,omitempty"`
	ImageURL    *string       `json:"image_url,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Currency    *string       `json:"currency,omitempty"`
	Priority    *WishPriority `json:"priority,omitempty"`
}

// Validate rejects updates that would blank out required fields.
func (r *UpdateWishRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return apierr.Validation("title cannot be empty")
	}
	if r.WishlistID != nil && *r.WishlistID == "" {
		return apierr.Validation("wishlist_id cannot be empty")
	}
	if r.Priority != nil && *r.Priority != PriorityJustWant && *r.Priority != PriorityReallyWant {
		return apierr.Validation("priority must be just_want or really_want")
	}
	return nil
}
