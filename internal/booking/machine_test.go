package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkruglov/giftwish/internal/apierr"
	"github.com/mkruglov/giftwish/internal/models"
)

const (
	owner  = int64(1)
	viewer = int64(2)
	other  = int64(3)
)

func available() *models.Wish {
	return &models.Wish{ID: "w1", WishlistID: "l1", Title: "x"}
}

func bookedBy(userID int64) *models.Wish {
	w := available()
	w.IsBooked = true
	w.BookedByUserID = &userID
	return w
}

func TestStateFor(t *testing.T) {
	assert.Equal(t, StateAvailable, StateFor(available(), viewer))
	assert.Equal(t, StateBookedByViewer, StateFor(bookedBy(viewer), viewer))
	assert.Equal(t, StateBookedByOther, StateFor(bookedBy(other), viewer))
	assert.Equal(t, StateBookedByOther, StateFor(bookedBy(viewer), other))
}

func TestOwnerCanNeverBookOwnWish(t *testing.T) {
	w := available()
	err := Book(w, owner, true)
	require.Error(t, err)
	assert.True(t, apierr.IsForbidden(err))
	assert.False(t, w.IsBooked, "state unchanged after rejected transition")
	assert.Nil(t, w.BookedByUserID)
}

func TestBookAvailableWish(t *testing.T) {
	w := available()
	require.NoError(t, Book(w, viewer, false))
	assert.True(t, w.IsBooked)
	require.NotNil(t, w.BookedByUserID)
	assert.Equal(t, viewer, *w.BookedByUserID)
	assert.True(t, w.BookingConsistent())
}

func TestBookIsIdempotentForTheBooker(t *testing.T) {
	w := bookedBy(viewer)
	require.NoError(t, Book(w, viewer, false))
	assert.True(t, w.BookedBy(viewer))
}

func TestBookingSomeoneElsesReservationIsForbidden(t *testing.T) {
	w := bookedBy(other)
	err := Book(w, viewer, false)
	require.Error(t, err)
	assert.True(t, apierr.IsForbidden(err))
	assert.True(t, w.BookedBy(other))
}

func TestUnbookOnlyByBooker(t *testing.T) {
	w := bookedBy(viewer)
	err := Unbook(w, other)
	require.Error(t, err)
	assert.True(t, apierr.IsForbidden(err))
	assert.True(t, w.BookedBy(viewer))

	require.NoError(t, Unbook(w, viewer))
	assert.False(t, w.IsBooked)
	assert.Nil(t, w.BookedByUserID)
}

func TestUnbookAvailableWishIsNoOp(t *testing.T) {
	w := available()
	require.NoError(t, Unbook(w, viewer))
	assert.False(t, w.IsBooked)
	assert.True(t, w.BookingConsistent())
}

func TestFulfillDiscardsReservation(t *testing.T) {
	w := bookedBy(viewer)
	Fulfill(w)
	assert.False(t, w.IsBooked)
	assert.Nil(t, w.BookedByUserID)
	assert.True(t, w.BookingConsistent())
}

// Full lifecycle: viewer books, owner is rejected, viewer unbooks.
func TestBookingLifecycle(t *testing.T) {
	w := available()

	require.NoError(t, Book(w, viewer, false))
	assert.Equal(t, StateBookedByViewer, StateFor(w, viewer))
	assert.Equal(t, StateBookedByOther, StateFor(w, other))

	err := Book(w, owner, true)
	assert.True(t, apierr.IsForbidden(err))
	assert.True(t, w.BookedBy(viewer))

	require.NoError(t, Unbook(w, viewer))
	assert.Equal(t, StateAvailable, StateFor(w, viewer))
	assert.Nil(t, w.BookedByUserID)
}
