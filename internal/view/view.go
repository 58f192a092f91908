// Package view derives presentation state for a wish. The derivation is a
// pure function of the wish and the viewer; it holds no state of its own.
// Enabled flags here only control which buttons are shown — the backend still
// re-checks every action.
package view

import (
	"github.com/mkruglov/giftwish/internal/booking"
	"github.com/mkruglov/giftwish/internal/models"
)

// State is everything a wish card or detail screen needs to render its
// booking badge and action buttons.
type State struct {
	BookingState booking.State `json:"booking_state"`
	BadgeLabel   string        `json:"badge_label,omitempty"`
	CTALabel     string        `json:"cta_label,omitempty"`
	CanBook      bool          `json:"can_book"`
	CanUnbook    bool          `json:"can_unbook"`
	CanEdit      bool          `json:"can_edit"`
	CanDelete    bool          `json:"can_delete"`
	CanFulfill   bool          `json:"can_fulfill"`
}

// Derive computes the render state of a wish for the given viewer. Owners see
// edit/delete/fulfill and never a booking CTA; guests see a booking CTA
// unless someone else holds the reservation.
func Derive(w *models.Wish, viewerTelegramID int64, isOwner bool) State {
	st := State{
		BookingState: booking.StateFor(w, viewerTelegramID),
		CanEdit:      isOwner,
		CanDelete:    isOwner,
		CanFulfill:   isOwner,
	}

	switch st.BookingState {
	case booking.StateBookedByViewer:
		st.BadgeLabel = "Reserved by you"
	case booking.StateBookedByOther:
		st.BadgeLabel = "Reserved"
	}

	if isOwner {
		return st
	}

	switch st.BookingState {
	case booking.StateAvailable:
		st.CanBook = true
		st.CTALabel = "Reserve this gift"
	case booking.StateBookedByViewer:
		st.CanUnbook = true
		st.CTALabel = "Cancel reservation"
	case booking.StateBookedByOther:
		// Terminal from this viewer's perspective: read-only card.
	}
	return st
}
