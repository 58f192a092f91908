// Package client implements the typed REST client for the wishlist backend.
// Every mutating request carries a fresh Idempotency-Key header so the
// backend can de-duplicate rapid repeats of the same action, e.g. a user
// double-tapping book/unbook.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mkruglov/giftwish/internal/apierr"
	"github.com/mkruglov/giftwish/internal/models"
)

// API is the backend surface the sync layer depends on. The concrete Client
// talks HTTP; tests substitute their own implementation.
type API interface {
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	GetWishlists(ctx context.Context, telegramID int64) ([]*models.Wishlist, error)
	GetWishes(ctx context.Context, wishlistID string, viewerTelegramID int64) ([]*models.Wish, error)
	GetWish(ctx context.Context, wishID string, viewerTelegramID int64) (*models.Wish, error)
	CreateWish(ctx context.Context, req models.CreateWishRequest, telegramID int64) (*models.Wish, error)
	UpdateWish(ctx context.Context, wishID string, req models.UpdateWishRequest, telegramID int64) (*models.Wish, error)
	DeleteWish(ctx context.Context, wishID string, telegramID int64) error
	BookWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error)
	UnbookWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error)
	FulfillWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

// New creates a Client for the backend at baseURL. A zero timeout leaves the
// transport defaults in place.
func New(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// errorResponse is the backend's JSON error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// do performs one round-trip. Responses with status >= 400 are mapped onto
// the error taxonomy; transport failures become network errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return apierr.Network(err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Backend request completed")

	if resp.StatusCode >= 400 {
		var errBody errorResponse
		detail := ""
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			detail = errBody.Detail
		}
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return apierr.FromResponse(resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apierr.Network(fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

func telegramQuery(telegramID int64) url.Values {
	q := url.Values{}
	q.Set("telegram_id", strconv.FormatInt(telegramID, 10))
	return q
}

// GetUser returns the profile registered for the given Telegram user.
func (c *Client) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	user := &models.User{}
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.FormatInt(telegramID, 10), nil, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetWishlists returns all wishlists owned by the given user.
func (c *Client) GetWishlists(ctx context.Context, telegramID int64) ([]*models.Wishlist, error) {
	var lists []*models.Wishlist
	if err := c.do(ctx, http.MethodGet, "/wishlists", telegramQuery(telegramID), nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetWishes returns the wishes of a wishlist, annotated with booking status
// relative to the viewer. A zero viewer ID omits the annotation parameter.
func (c *Client) GetWishes(ctx context.Context, wishlistID string, viewerTelegramID int64) ([]*models.Wish, error) {
	q := url.Values{}
	q.Set("wishlist_id", wishlistID)
	if viewerTelegramID != 0 {
		q.Set("viewer_telegram_id", strconv.FormatInt(viewerTelegramID, 10))
	}
	var wishes []*models.Wish
	if err := c.do(ctx, http.MethodGet, "/wishes", q, nil, &wishes); err != nil {
		return nil, err
	}
	return wishes, nil
}

// GetWish returns a single wish by ID.
func (c *Client) GetWish(ctx context.Context, wishID string, viewerTelegramID int64) (*models.Wish, error) {
	q := url.Values{}
	if viewerTelegramID != 0 {
		q.Set("viewer_telegram_id", strconv.FormatInt(viewerTelegramID, 10))
	}
	wish := &models.Wish{}
	if err := c.do(ctx, http.MethodGet, "/wishes/"+wishID, q, nil, wish); err != nil {
		return nil, err
	}
	return wish, nil
}

// CreateWish creates a wish in one of the caller's wishlists.
func (c *Client) CreateWish(ctx context.Context, req models.CreateWishRequest, telegramID int64) (*models.Wish, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wish := &models.Wish{}
	if err := c.do(ctx, http.MethodPost, "/wishes", telegramQuery(telegramID), req, wish); err != nil {
		return nil, err
	}
	return wish, nil
}

// UpdateWish applies a partial update. Setting req.WishlistID moves the wish
// to another list.
func (c *Client) UpdateWish(ctx context.Context, wishID string, req models.UpdateWishRequest, telegramID int64) (*models.Wish, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wish := &models.Wish{}
	if err := c.do(ctx, http.MethodPut, "/wishes/"+wishID, telegramQuery(telegramID), req, wish); err != nil {
		return nil, err
	}
	return wish, nil
}

// DeleteWish removes a wish. Owner-only; a booked wish loses its reservation.
func (c *Client) DeleteWish(ctx context.Context, wishID string, telegramID int64) error {
	return c.do(ctx, http.MethodDelete, "/wishes/"+wishID, telegramQuery(telegramID), nil, nil)
}

// BookWish reserves a wish for the calling user.
func (c *Client) BookWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error) {
	wish := &models.Wish{}
	if err := c.do(ctx, http.MethodPost, "/wishes/"+wishID+"/book", telegramQuery(telegramID), nil, wish); err != nil {
		return nil, err
	}
	return wish, nil
}

// UnbookWish cancels the calling user's reservation.
func (c *Client) UnbookWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error) {
	wish := &models.Wish{}
	if err := c.do(ctx, http.MethodDelete, "/wishes/"+wishID+"/book", telegramQuery(telegramID), nil, wish); err != nil {
		return nil, err
	}
	return wish, nil
}

// FulfillWish marks a wish as given. Owner-only.
func (c *Client) FulfillWish(ctx context.Context, wishID string, telegramID int64) (*models.Wish, error) {
	wish := &models.Wish{}
	if err := c.do(ctx, http.MethodPost, "/wishes/"+wishID+"/fulfill", telegramQuery(telegramID), nil, wish); err != nil {
		return nil, err
	}
	return wish, nil
}
