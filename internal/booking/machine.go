// Package booking implements the reservation state machine for wishes.
//
// The states are viewer-scoped: the same wish is BookedByViewer for the user
// who reserved it and BookedByOther for everyone else. All checks here are
// rendering hints — the backend makes the authoritative permission decision
// and the client must accept its answer even when the local check disagrees.
package booking

import (
	"github.com/mkruglov/giftwish/internal/apierr"
	"github.com/mkruglov/giftwish/internal/models"
)

// State is a wish's reservation state as seen by a particular viewer.
type State string

const (
	// StateAvailable means nobody has reserved the wish.
	StateAvailable State = "available"
	// StateBookedByViewer means the current viewer holds the reservation.
	StateBookedByViewer State = "booked_by_viewer"
	// StateBookedByOther means someone else holds the reservation. No booking
	// transition is available to the viewer; only the booker cancelling or
	// the owner fulfilling clears it.
	StateBookedByOther State = "booked_by_other"
)

// StateFor derives the viewer-scoped reservation state of a wish.
func StateFor(w *models.Wish, viewerID int64) State {
	if !w.IsBooked {
		return StateAvailable
	}
	if w.BookedBy(viewerID) {
		return StateBookedByViewer
	}
	return StateBookedByOther
}

// CanBook checks whether the viewer may reserve the wish. Booking a wish the
// viewer already reserved is allowed as an idempotent no-op.
func CanBook(w *models.Wish, viewerID int64, isOwner bool) error {
	if isOwner {
		return apierr.Forbidden("owners cannot book their own wishes")
	}
	if StateFor(w, viewerID) == StateBookedByOther {
		return apierr.Forbidden("wish is already booked by another user")
	}
	return nil
}

// CanUnbook checks whether the viewer may cancel the reservation. Unbooking
// an available wish is an idempotent no-op; unbooking someone else's
// reservation is forbidden.
func CanUnbook(w *models.Wish, viewerID int64) error {
	if StateFor(w, viewerID) == StateBookedByOther {
		return apierr.Forbidden("only the user who booked the wish can cancel the booking")
	}
	return nil
}

// Book applies the Available -> BookedByViewer transition to the wish,
// keeping the booking invariant intact. Callers are expected to have checked
// CanBook; the error is repeated here so the transition can be used on its
// own.
func Book(w *models.Wish, viewerID int64, isOwner bool) error {
	if err := CanBook(w, viewerID, isOwner); err != nil {
		return err
	}
	w.IsBooked = true
	id := viewerID
	w.BookedByUserID = &id
	return nil
}

// Unbook applies the BookedByViewer -> Available transition.
func Unbook(w *models.Wish, viewerID int64) error {
	if err := CanUnbook(w, viewerID); err != nil {
		return err
	}
	w.IsBooked = false
	w.BookedByUserID = nil
	return nil
}

// Fulfill marks the wish as given. Fulfilling discards any reservation: the
// wish leaves the active list, so keeping booker attribution would leak the
// booker's identity to the owner for no benefit.
func Fulfill(w *models.Wish) {
	w.IsBooked = false
	w.BookedByUserID = nil
}
