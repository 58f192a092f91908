package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkruglov/giftwish/internal/models"
)

func wish(id, wishlistID, title string) *models.Wish {
	return &models.Wish{ID: id, WishlistID: wishlistID, Title: title, Priority: models.PriorityJustWant}
}

func ids(wishes []*models.Wish) []string {
	out := make([]string, 0, len(wishes))
	for _, w := range wishes {
		out = append(out, w.ID)
	}
	return out
}

func TestCollectionCreatePrependsForTrackedList(t *testing.T) {
	c := NewCollection("l1")
	c.Reset([]*models.Wish{wish("a", "l1", "old")})

	c.Apply(Event{Kind: EventCreate, Wish: wish("b", "l1", "new")})
	assert.Equal(t, []string{"b", "a"}, ids(c.Wishes()))

	// A wish for another list is ignored.
	c.Apply(Event{Kind: EventCreate, Wish: wish("c", "l2", "elsewhere")})
	assert.Equal(t, []string{"b", "a"}, ids(c.Wishes()))
}

func TestCollectionCreateOnUntrackedCollection(t *testing.T) {
	c := NewCollection("")
	c.Apply(Event{Kind: EventCreate, Wish: wish("a", "l1", "any")})
	c.Apply(Event{Kind: EventCreate, Wish: wish("b", "l2", "any list goes")})
	assert.Equal(t, []string{"b", "a"}, ids(c.Wishes()))
}

func TestCollectionUpdateReplacesInPlace(t *testing.T) {
	c := NewCollection("l1")
	c.Reset([]*models.Wish{wish("a", "l1", "before"), wish("b", "l1", "other")})

	c.Apply(Event{Kind: EventUpdate, Wish: wish("a", "l1", "after")})

	assert.Equal(t, []string{"a", "b"}, ids(c.Wishes()))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "after", got.Title)
}

func TestCollectionUpdateMovesWishOut(t *testing.T) {
	c := NewCollection("l1")
	c.Reset([]*models.Wish{wish("a", "l1", "x"), wish("b", "l1", "y")})

	c.Apply(Event{Kind: EventUpdate, Wish: wish("a", "l2", "x")})

	assert.Equal(t, []string{"b"}, ids(c.Wishes()))
}

func TestCollectionUpdateMovesWishIn(t *testing.T) {
	c := NewCollection("l2")
	c.Reset([]*models.Wish{wish("b", "l2", "y")})

	c.Apply(Event{Kind: EventUpdate, Wish: wish("a", "l2", "moved in")})

	assert.Equal(t, []string{"a", "b"}, ids(c.Wishes()))

	// Applying the same update again must not duplicate the wish.
	c.Apply(Event{Kind: EventUpdate, Wish: wish("a", "l2", "moved in")})
	assert.Equal(t, []string{"a", "b"}, ids(c.Wishes()))
}

func TestCollectionUntrackedNeverInserts(t *testing.T) {
	c := NewCollection("")
	c.Reset([]*models.Wish{wish("a", "l1", "x")})

	// Update of an absent wish on an untracked collection is dropped.
	c.Apply(Event{Kind: EventUpdate, Wish: wish("b", "l1", "absent")})
	assert.Equal(t, []string{"a"}, ids(c.Wishes()))

	// Present wishes are replaced in place even if their list changed.
	c.Apply(Event{Kind: EventUpdate, Wish: wish("a", "l9", "replaced")})
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "replaced", got.Title)
	assert.Equal(t, "l9", got.WishlistID)
}

func TestCollectionDeleteRemovesByID(t *testing.T) {
	c := NewCollection("l1")
	c.Reset([]*models.Wish{wish("a", "l1", "x"), wish("b", "l1", "y")})

	c.Apply(Event{Kind: EventDelete, ID: "a"})
	assert.Equal(t, []string{"b"}, ids(c.Wishes()))

	// Deleting an unknown wish is a no-op.
	c.Apply(Event{Kind: EventDelete, ID: "zzz"})
	assert.Equal(t, []string{"b"}, ids(c.Wishes()))
}

func TestCollectionFulfillBehavesLikeMoveOut(t *testing.T) {
	c := NewCollection("l1")
	c.Reset([]*models.Wish{wish("a", "l1", "x")})

	fulfilled := wish("a", "fulfilled", "x")
	c.Apply(Event{Kind: EventFulfill, Wish: fulfilled})

	assert.Equal(t, 0, c.Len())
}

func TestCollectionMoveEventIsNoOp(t *testing.T) {
	c := NewCollection("l1")
	c.Reset([]*models.Wish{wish("a", "l1", "x")})

	c.Apply(Event{Kind: EventMove})
	assert.Equal(t, []string{"a"}, ids(c.Wishes()))
}

func TestCollectionSnapshotsAreIsolated(t *testing.T) {
	c := NewCollection("l1")
	c.Reset([]*models.Wish{wish("a", "l1", "x")})

	snap := c.Wishes()
	snap[0].Title = "mutated"

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "x", got.Title)
}
