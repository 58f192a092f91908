package sync

import (
	stdsync "sync"

	"github.com/mkruglov/giftwish/internal/models"
)

// Collection is one mounted view's local set of wishes: the in-memory wish
// store for a list, grid or detail screen. It optionally tracks a single
// wishlist; an untracked collection (tracked list "") holds whatever was
// loaded into it and only ever replaces items in place.
//
// Apply implements the merge rules as a pure function of the previous
// contents and the incoming event, so reconciliation is testable without any
// transport. Each wish is present at most once, and wishes entering a
// collection are prepended.
type Collection struct {
	mu         stdsync.RWMutex
	wishlistID string
	order      []string
	items      map[string]*models.Wish
}

// NewCollection creates a collection tracking the given wishlist. Pass "" for
// a collection that tracks no specific list.
func NewCollection(wishlistID string) *Collection {
	return &Collection{
		wishlistID: wishlistID,
		items:      make(map[string]*models.Wish),
	}
}

// Track switches the collection to another wishlist without touching its
// contents; callers normally follow up with Reset.
func (c *Collection) Track(wishlistID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wishlistID = wishlistID
}

// TrackedList returns the wishlist this collection tracks, or "".
func (c *Collection) TrackedList() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wishlistID
}

// Reset replaces the contents with a freshly fetched snapshot.
func (c *Collection) Reset(wishes []*models.Wish) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = c.order[:0]
	c.items = make(map[string]*models.Wish, len(wishes))
	for _, w := range wishes {
		if _, ok := c.items[w.ID]; ok {
			continue
		}
		c.order = append(c.order, w.ID)
		c.items[w.ID] = w.Clone()
	}
}

// Wishes returns a snapshot of the contents in display order.
func (c *Collection) Wishes() []*models.Wish {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Wish, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id].Clone())
	}
	return out
}

// Get returns the wish with the given ID, if present.
func (c *Collection) Get(id string) (*models.Wish, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return w.Clone(), true
}

// Len returns the number of wishes currently held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Apply merges one event into the collection:
//
//   - create: prepend when the wish belongs to the tracked list, or when no
//     list is tracked yet;
//   - update/fulfill: drop the wish if it moved off the tracked list, replace
//     it in place if present, prepend it if it moved in; an untracked
//     collection only replaces in place;
//   - delete: remove by ID;
//   - move: no-op, the owner of the collection re-fetches.
func (c *Collection) Apply(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case EventCreate:
		if ev.Wish == nil {
			return
		}
		if c.wishlistID == "" || ev.Wish.WishlistID == c.wishlistID {
			c.prepend(ev.Wish)
		}

	case EventUpdate, EventFulfill:
		if ev.Wish == nil {
			return
		}
		_, present := c.items[ev.Wish.ID]
		switch {
		case c.wishlistID != "" && ev.Wish.WishlistID != c.wishlistID:
			// Moved out of the tracked list.
			c.remove(ev.Wish.ID)
		case c.wishlistID != "" && present:
			c.items[ev.Wish.ID] = ev.Wish.Clone()
		case c.wishlistID != "":
			// Moved into the tracked list.
			c.prepend(ev.Wish)
		case present:
			c.items[ev.Wish.ID] = ev.Wish.Clone()
		}

	case EventDelete:
		c.remove(ev.ID)
	}
}

func (c *Collection) prepend(w *models.Wish) {
	if _, ok := c.items[w.ID]; ok {
		c.items[w.ID] = w.Clone()
		return
	}
	c.order = append([]string{w.ID}, c.order...)
	c.items[w.ID] = w.Clone()
}

func (c *Collection) remove(id string) {
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
