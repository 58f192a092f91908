package sync

import (
	"context"
	"fmt"
	stdsync "sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mkruglov/giftwish/internal/client"
	"github.com/mkruglov/giftwish/internal/models"
)

// moveBatchSize bounds how many wish updates a bulk move issues at once.
// Updates within a batch run concurrently; batches run sequentially.
const moveBatchSize = 5

// Session coordinates the backend client, the event bus and the shared
// "currently open wish" reference. All mutations go through it: the backend
// call is issued first and local collections are only updated once the
// backend confirms, after which a typed event is broadcast to every attached
// view.
//
// Overlapping mutations of the same wish are serialized through a per-wish
// lock, so two rapid book/unbook taps reach the backend one after the other
// instead of racing.
type Session struct {
	api    client.API
	bus    *Bus
	logger *logrus.Logger

	mu       stdsync.Mutex
	opened   *models.Wish
	inflight map[string]*stdsync.Mutex
}

// NewSession creates a session on top of the given backend client and bus.
func NewSession(api client.API, bus *Bus, logger *logrus.Logger) *Session {
	return &Session{
		api:      api,
		bus:      bus,
		logger:   logger,
		inflight: make(map[string]*stdsync.Mutex),
	}
}

// Bus returns the session's event bus.
func (s *Session) Bus() *Bus {
	return s.bus
}

// View is one mounted collection wired to the session's bus. Closing a view
// detaches it; events that arrive after Close are dropped on the floor, which
// is exactly what an unmounted screen wants.
type View struct {
	col *Collection
	sub *Subscription
}

// Attach creates a view tracking the given wishlist ("" for none) and
// subscribes it to the bus.
func (s *Session) Attach(wishlistID string) *View {
	col := NewCollection(wishlistID)
	sub := s.bus.Subscribe(col.Apply)
	return &View{col: col, sub: sub}
}

// Collection exposes the view's underlying collection.
func (v *View) Collection() *Collection {
	return v.col
}

// Wishes returns the view's current contents in display order.
func (v *View) Wishes() []*models.Wish {
	return v.col.Wishes()
}

// Close detaches the view from the bus. Safe to call more than once.
func (v *View) Close() {
	v.sub.Unsubscribe()
}

// Fetch loads the wishes of a wishlist into the view and makes the view track
// that list. The viewer ID annotates booking status relative to the viewer.
func (s *Session) Fetch(ctx context.Context, v *View, wishlistID string, viewerTelegramID int64) error {
	wishes, err := s.api.GetWishes(ctx, wishlistID, viewerTelegramID)
	if err != nil {
		observeOperation("fetch", err)
		return fmt.Errorf("failed to fetch wishes for wishlist %s: %w", wishlistID, err)
	}
	v.col.Track(wishlistID)
	v.col.Reset(wishes)
	observeOperation("fetch", nil)
	return nil
}

// OpenWish sets the shared currently-open wish reference, used by a detail
// screen while list screens stay mounted in the background.
func (s *Session) OpenWish(w *models.Wish) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = w.Clone()
}

// CloseWish clears the currently-open wish.
func (s *Session) CloseWish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = nil
}

// OpenedWish returns the currently-open wish, or nil.
func (s *Session) OpenedWish() *models.Wish {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened == nil {
		return nil
	}
	return s.opened.Clone()
}

// Create creates a wish and prepends it to every attached view tracking its
// wishlist.
func (s *Session) Create(ctx context.Context, req models.CreateWishRequest, actorTelegramID int64) (*models.Wish, error) {
	created, err := s.api.CreateWish(ctx, req, actorTelegramID)
	observeOperation("create", err)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: EventCreate, Wish: created})
	s.logger.WithFields(logrus.Fields{
		"wish_id":     created.ID,
		"wishlist_id": created.WishlistID,
	}).Info("Wish created")
	return created, nil
}

// Update applies a partial update to a wish. When the update changes the
// wishlist, attached views see the wish move between lists.
func (s *Session) Update(ctx context.Context, wishID string, req models.UpdateWishRequest, actorTelegramID int64) (*models.Wish, error) {
	unlock := s.lockWish(wishID)
	defer unlock()

	updated, err := s.api.UpdateWish(ctx, wishID, req, actorTelegramID)
	observeOperation("update", err)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: EventUpdate, Wish: updated})
	return updated, nil
}

// Delete removes a wish from the backend and from every attached view,
// regardless of booking state. Owner-only on the backend.
func (s *Session) Delete(ctx context.Context, wishID string, actorTelegramID int64) error {
	unlock := s.lockWish(wishID)
	defer unlock()

	err := s.api.DeleteWish(ctx, wishID, actorTelegramID)
	observeOperation("delete", err)
	if err != nil {
		return err
	}
	s.publish(Event{Kind: EventDelete, ID: wishID})
	s.logger.WithField("wish_id", wishID).Info("Wish deleted")
	return nil
}

// Book reserves a wish for the acting user. The backend rejects owners
// booking their own wishes; local state stays untouched on failure.
func (s *Session) Book(ctx context.Context, wishID string, actorTelegramID int64) (*models.Wish, error) {
	unlock := s.lockWish(wishID)
	defer unlock()

	updated, err := s.api.BookWish(ctx, wishID, actorTelegramID)
	observeOperation("book", err)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: EventUpdate, Wish: updated})
	return updated, nil
}

// Unbook cancels the acting user's reservation.
func (s *Session) Unbook(ctx context.Context, wishID string, actorTelegramID int64) (*models.Wish, error) {
	unlock := s.lockWish(wishID)
	defer unlock()

	updated, err := s.api.UnbookWish(ctx, wishID, actorTelegramID)
	observeOperation("unbook", err)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: EventUpdate, Wish: updated})
	return updated, nil
}

// Fulfill marks a wish as given. The wish moves to the owner's fulfilled
// list, so views tracking the original list drop it.
func (s *Session) Fulfill(ctx context.Context, wishID string, actorTelegramID int64) (*models.Wish, error) {
	unlock := s.lockWish(wishID)
	defer unlock()

	updated, err := s.api.FulfillWish(ctx, wishID, actorTelegramID)
	observeOperation("fulfill", err)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: EventFulfill, Wish: updated})
	return updated, nil
}

// MoveAll moves every wish of one wishlist to another, updating in batches of
// moveBatchSize issued concurrently within a batch and sequentially across
// batches. The whole operation fails if any single update fails; wishes moved
// by earlier batches (or by successful siblings of the failing batch) stay
// moved. There is no compensating rollback — callers should re-fetch both
// lists after a failure.
func (s *Session) MoveAll(ctx context.Context, fromWishlistID, toWishlistID string, actorTelegramID int64) error {
	wishes, err := s.api.GetWishes(ctx, fromWishlistID, 0)
	if err != nil {
		observeOperation("move_all", err)
		return fmt.Errorf("failed to list wishes of wishlist %s: %w", fromWishlistID, err)
	}

	for start := 0; start < len(wishes); start += moveBatchSize {
		end := start + moveBatchSize
		if end > len(wishes) {
			end = len(wishes)
		}
		batch := wishes[start:end]

		var (
			wg       stdsync.WaitGroup
			errMu    stdsync.Mutex
			batchErr *multierror.Error
		)
		for _, w := range batch {
			wg.Add(1)
			go func(w *models.Wish) {
				defer wg.Done()
				req := models.UpdateWishRequest{WishlistID: &toWishlistID}
				if _, err := s.api.UpdateWish(ctx, w.ID, req, actorTelegramID); err != nil {
					errMu.Lock()
					batchErr = multierror.Append(batchErr, fmt.Errorf("wish %s: %w", w.ID, err))
					errMu.Unlock()
				}
			}(w)
		}
		wg.Wait()

		if err := batchErr.ErrorOrNil(); err != nil {
			observeOperation("move_all", err)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"from": fromWishlistID,
				"to":   toWishlistID,
			}).Error("Bulk move failed part-way; collections may be inconsistent until re-fetched")
			return fmt.Errorf("failed to move wishes from %s to %s: %w", fromWishlistID, toWishlistID, err)
		}
	}

	observeOperation("move_all", nil)
	s.publish(Event{Kind: EventMove})
	s.logger.WithFields(logrus.Fields{
		"from":  fromWishlistID,
		"to":    toWishlistID,
		"count": len(wishes),
	}).Info("Wishes moved between wishlists")
	return nil
}

// publish broadcasts the event and reconciles the shared open-wish reference
// when the event concerns the same wish.
func (s *Session) publish(ev Event) {
	s.mu.Lock()
	if s.opened != nil && ev.WishID() == s.opened.ID {
		switch ev.Kind {
		case EventDelete:
			s.opened = nil
		case EventUpdate, EventFulfill, EventCreate:
			s.opened = ev.Wish.Clone()
		}
	}
	s.mu.Unlock()

	s.bus.Publish(ev)
}

// lockWish serializes in-flight mutations of a single wish.
func (s *Session) lockWish(id string) func() {
	s.mu.Lock()
	l, ok := s.inflight[id]
	if !ok {
		l = &stdsync.Mutex{}
		s.inflight[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
