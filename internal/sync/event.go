// Package sync keeps every mounted view of a wishlist consistent after a
// mutation without a full reload. Mutations are applied on confirmation: the
// backend call is issued first and local state is only touched once the
// backend has accepted the change, so a failure never leaves a phantom
// update behind.
package sync

import "github.com/mkruglov/giftwish/internal/models"

// EventKind identifies what happened to a wish.
type EventKind string

const (
	// EventCreate carries a freshly created wish.
	EventCreate EventKind = "create"
	// EventUpdate carries the new server state of a wish after an edit,
	// booking or unbooking.
	EventUpdate EventKind = "update"
	// EventFulfill carries the wish after the owner marked it as given. The
	// wish has moved to the owner's fulfilled list, so tracked collections
	// treat this like an update that changed the wishlist.
	EventFulfill EventKind = "fulfill"
	// EventDelete carries only the ID of the removed wish.
	EventDelete EventKind = "delete"
	// EventMove signals a bulk move between lists. It carries no payload;
	// listeners that track a list re-fetch it.
	EventMove EventKind = "move"
)

// Event is the typed notification broadcast to every subscribed view after a
// confirmed mutation.
type Event struct {
	Kind EventKind
	Wish *models.Wish // set for create, update and fulfill
	ID   string       // set for delete
}

// WishID returns the ID of the wish the event concerns, or "" for bulk
// events.
func (e Event) WishID() string {
	if e.Wish != nil {
		return e.Wish.ID
	}
	return e.ID
}
