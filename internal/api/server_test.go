package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkruglov/giftwish/internal/apierr"
	"github.com/mkruglov/giftwish/internal/booking"
	"github.com/mkruglov/giftwish/internal/models"
	syncpkg "github.com/mkruglov/giftwish/internal/sync"
	"github.com/mkruglov/giftwish/internal/view"
	"github.com/mkruglov/giftwish/pkg/logger"
)

// stubAPI is a canned backend for handler tests.
type stubAPI struct {
	wishes  []*models.Wish
	wish    *models.Wish
	bookErr error
}

func (s *stubAPI) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return &models.User{ID: telegramID, TelegramID: telegramID, Username: "viewer"}, nil
}

func (s *stubAPI) GetWishlists(ctx context.Context, telegramID int64) ([]*models.Wishlist, error) {
	return []*models.Wishlist{{ID: "l1", UserID: telegramID, Title: "Birthday"}}, nil
}

func (s *stubAPI) GetWishes(ctx context.Context, wishlistID string, viewerTelegramID int64) ([]*models.Wish, error) {
	return s.wishes, nil
}

func (s *stubAPI) GetWish(ctx context.Context, wishID string, viewerTelegramID int64) (*models.Wish, error) {
	if s.wish == nil {
		return nil, apierr.NotFound("wish not found")
	}
	return s.wish.Clone(), nil
}

func (s *stubAPI) CreateWish(ctx context.Context, req models.CreateWishRequest, telegramID int64) (*models.Wish, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &models.Wish{ID: "new", WishlistID: req.WishlistID, Title: req.Title, Priority: req.Priority}, nil
}

func (s *stubAPI) UpdateWish(ctx context.Context, wishID string, req models.UpdateWishRequest, telegramID int64) (*models.Wish, error) {
	return s.wish.Clone(), nil
}

func (s *stubAPI) DeleteWish(ctx context.Context, wishID string, telegramID int64) error {
	return nil
}

func (s *stubAPI) BookWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error) {
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	w := s.wish.Clone()
	w.IsBooked = true
	w.BookedByUserID = &telegramID
	return w, nil
}

func (s *stubAPI) UnbookWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error) {
	return s.wish.Clone(), nil
}

func (s *stubAPI) FulfillWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error) {
	return s.wish.Clone(), nil
}

func newTestServer(stub *stubAPI) *Server {
	l := logger.New("error")
	bus := syncpkg.NewBus()
	session := syncpkg.NewSession(stub, bus, l)
	view := session.Attach("")
	refresher := syncpkg.NewRefresher(session, view, time.Hour, l)
	return NewServer(stub, session, view, refresher, l)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubAPI{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetWishesWarmsSnapshot(t *testing.T) {
	stub := &stubAPI{wishes: []*models.Wish{
		{ID: "w1", WishlistID: "l1", Title: "a"},
		{ID: "w2", WishlistID: "l1", Title: "b"},
	}}
	srv := newTestServer(stub)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wishes?wishlist_id=l1&viewer_telegram_id=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*models.Wish
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	// The gateway's view now tracks the fetched list.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var state struct {
		WishlistID string         `json:"wishlist_id"`
		Wishes     []*models.Wish `json:"wishes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "l1", state.WishlistID)
	assert.Len(t, state.Wishes, 2)
}

func TestGetWishesRequiresWishlistID(t *testing.T) {
	srv := newTestServer(&stubAPI{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wishes", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookRequiresTelegramID(t *testing.T) {
	srv := newTestServer(&stubAPI{wish: &models.Wish{ID: "w1", WishlistID: "l1", Title: "x"}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/wishes/w1/book", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookForbiddenMapsTo403(t *testing.T) {
	stub := &stubAPI{
		wish:    &models.Wish{ID: "w1", WishlistID: "l1", Title: "x"},
		bookErr: apierr.Forbidden("owners cannot book their own wishes"),
	}
	srv := newTestServer(stub)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/wishes/w1/book?telegram_id=1", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "owners cannot book their own wishes", body["detail"])
}

func TestGetWishOpensDetailReference(t *testing.T) {
	stub := &stubAPI{wish: &models.Wish{ID: "w1", WishlistID: "l1", Title: "x"}}
	srv := newTestServer(stub)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wishes/w1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var state struct {
		Opened *models.Wish `json:"opened"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotNil(t, state.Opened)
	assert.Equal(t, "w1", state.Opened.ID)

	// Closing the detail view clears the reference.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/state/opened", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	state.Opened = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Nil(t, state.Opened)
}

func TestWishCardForGuest(t *testing.T) {
	booker := int64(9)
	stub := &stubAPI{wish: &models.Wish{
		ID: "w1", WishlistID: "l1", Title: "x",
		IsBooked: true, BookedByUserID: &booker,
	}}
	srv := newTestServer(stub)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wishes/w1/card?viewer_telegram_id=9", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Card view.State `json:"card"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, booking.StateBookedByViewer, body.Card.BookingState)
	assert.Equal(t, "Reserved by you", body.Card.BadgeLabel)
	assert.True(t, body.Card.CanUnbook)
	assert.False(t, body.Card.CanEdit)
}

func TestCreateWishValidationMapsTo400(t *testing.T) {
	srv := newTestServer(&stubAPI{})

	req := httptest.NewRequest(http.MethodPost, "/api/wishes?telegram_id=1",
		jsonBody(t, models.CreateWishRequest{WishlistID: "l1"}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}
