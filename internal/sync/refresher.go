package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher runs a background loop that periodically re-fetches the wishlist
// its view currently tracks, pulling in changes made by other users. It also
// listens for bulk-move events and refreshes immediately, since those carry
// no per-wish payload. It blocks until the context is cancelled, so it should
// be launched in a separate goroutine.
type Refresher struct {
	session  *Session
	view     *View
	interval time.Duration
	logger   *logrus.Logger

	mu       stdsync.Mutex
	viewerID int64
}

// NewRefresher creates a refresher for the given view.
func NewRefresher(session *Session, view *View, interval time.Duration, logger *logrus.Logger) *Refresher {
	return &Refresher{
		session:  session,
		view:     view,
		interval: interval,
		logger:   logger,
	}
}

// SetViewer records which user's perspective the refresher fetches with, so
// booking annotations stay relative to the right viewer.
func (r *Refresher) SetViewer(telegramID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewerID = telegramID
}

func (r *Refresher) viewer() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewerID
}

// Run refreshes on every tick and on every bulk-move event until the context
// is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	kick := make(chan struct{}, 1)
	sub := r.session.Bus().Subscribe(func(ev Event) {
		if ev.Kind != EventMove {
			return
		}
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	defer sub.Unsubscribe()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithField("interval", r.interval).Info("Wishlist refresher started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Wishlist refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		case <-kick:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	wishlistID := r.view.Collection().TrackedList()
	if wishlistID == "" {
		return
	}
	if err := r.session.Fetch(ctx, r.view, wishlistID, r.viewer()); err != nil {
		r.logger.WithError(err).WithField("wishlist_id", wishlistID).Error("Failed to refresh wishlist")
	}
}
