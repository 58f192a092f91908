package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mkruglov/giftwish/internal/apierr"
	"github.com/mkruglov/giftwish/internal/client"
	"github.com/mkruglov/giftwish/internal/models"
	syncpkg "github.com/mkruglov/giftwish/internal/sync"
	"github.com/mkruglov/giftwish/internal/view"
)

// Server is the local HTTP surface the Mini-App frontend talks to during
// development: a thin gateway that drives every mutation through the sync
// session so the in-memory snapshot stays consistent with what the backend
// confirmed.
type Server struct {
	api       client.API
	session   *syncpkg.Session
	view      *syncpkg.View
	refresher *syncpkg.Refresher
	logger    *logrus.Logger
	mux       *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(api client.API, session *syncpkg.Session, view *syncpkg.View, refresher *syncpkg.Refresher, logger *logrus.Logger) *Server {
	s := &Server{
		api:       api,
		session:   session,
		view:      view,
		refresher: refresher,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// Operational endpoints
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Viewer profile
	s.mux.HandleFunc("GET /api/me", s.handleMe)

	// Wishlists
	s.mux.HandleFunc("GET /api/wishlists", s.handleGetWishlists)
	s.mux.HandleFunc("POST /api/wishlists/move", s.handleMoveWishes)

	// Wishes
	s.mux.HandleFunc("GET /api/wishes", s.handleGetWishes)
	s.mux.HandleFunc("POST /api/wishes", s.handleCreateWish)
	s.mux.HandleFunc("GET /api/wishes/{id}", s.handleGetWish)
	s.mux.HandleFunc("GET /api/wishes/{id}/card", s.handleWishCard)
	s.mux.HandleFunc("PUT /api/wishes/{id}", s.handleUpdateWish)
	s.mux.HandleFunc("DELETE /api/wishes/{id}", s.handleDeleteWish)
	s.mux.HandleFunc("POST /api/wishes/{id}/book", s.handleBookWish)
	s.mux.HandleFunc("DELETE /api/wishes/{id}/book", s.handleUnbookWish)
	s.mux.HandleFunc("POST /api/wishes/{id}/fulfill", s.handleFulfillWish)

	// Local snapshot (what the sync layer currently holds)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("DELETE /api/state/opened", s.handleCloseWish)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"detail": message})
}

// respondFailure maps a taxonomy error onto an HTTP status. Unclassified
// failures surface as a bad gateway, since the backend is the upstream here.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	var e *apierr.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case apierr.KindNotFound:
			s.respondError(w, http.StatusNotFound, e.Detail)
			return
		case apierr.KindForbidden:
			s.respondError(w, http.StatusForbidden, e.Detail)
			return
		case apierr.KindValidation:
			s.respondError(w, http.StatusBadRequest, e.Detail)
			return
		}
	}
	s.respondError(w, http.StatusBadGateway, err.Error())
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathWishID extracts the {id} path value.
func pathWishID(r *http.Request) (string, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return "", fmt.Errorf("missing id in path")
	}
	return raw, nil
}

// requireTelegramID reads the telegram_id query parameter.  It writes an
// error response and returns 0 when the parameter is absent or invalid.
func (s *Server) requireTelegramID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("telegram_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "telegram_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "telegram_id must be an integer")
		return 0, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Operational
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleState exposes the sync layer's current snapshot: the tracked
// wishlist, its wishes, and the open wish reference.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"wishlist_id": s.view.Collection().TrackedList(),
		"wishes":      s.view.Wishes(),
		"opened":      s.session.OpenedWish(),
	})
}

// handleMe returns the viewer's backend profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	user, err := s.api.GetUser(r.Context(), telegramID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get user")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

// handleCloseWish drops the open-wish reference when the detail view unmounts.
func (s *Server) handleCloseWish(w http.ResponseWriter, r *http.Request) {
	s.session.CloseWish()
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Wishlists
// ---------------------------------------------------------------------------

func (s *Server) handleGetWishlists(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	lists, err := s.api.GetWishlists(r.Context(), telegramID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get wishlists")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, lists)
}

func (s *Server) handleMoveWishes(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		s.respondError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	if err := s.session.MoveAll(r.Context(), from, to, telegramID); err != nil {
		s.logger.WithError(err).Error("failed to move wishes")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

// ---------------------------------------------------------------------------
// Wishes
// ---------------------------------------------------------------------------

func (s *Server) handleGetWishes(w http.ResponseWriter, r *http.Request) {
	wishlistID := r.URL.Query().Get("wishlist_id")
	if wishlistID == "" {
		s.respondError(w, http.StatusBadRequest, "wishlist_id query parameter is required")
		return
	}

	var viewerID int64
	if raw := r.URL.Query().Get("viewer_telegram_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "viewer_telegram_id must be an integer")
			return
		}
		viewerID = id
	}

	if err := s.session.Fetch(r.Context(), s.view, wishlistID, viewerID); err != nil {
		s.logger.WithError(err).Error("failed to fetch wishes")
		s.respondFailure(w, err)
		return
	}
	s.refresher.SetViewer(viewerID)

	s.respondJSON(w, http.StatusOK, s.view.Wishes())
}

func (s *Server) handleGetWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathWishID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wish id")
		return
	}

	var viewerID int64
	if raw := r.URL.Query().Get("viewer_telegram_id"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			viewerID = v
		}
	}

	wish, err := s.api.GetWish(r.Context(), id, viewerID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get wish")
		s.respondFailure(w, err)
		return
	}

	// Opening the detail view keeps the shared reference live for /api/state.
	s.session.OpenWish(wish)

	s.respondJSON(w, http.StatusOK, wish)
}

// handleWishCard renders the presentation state the frontend would derive for
// a wish card: badge, CTA label, and capability flags for the given viewer.
func (s *Server) handleWishCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathWishID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wish id")
		return
	}

	var viewerID int64
	if raw := r.URL.Query().Get("viewer_telegram_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "viewer_telegram_id must be an integer")
			return
		}
		viewerID = v
	}
	isOwner := r.URL.Query().Get("is_owner") == "true"

	wish, err := s.api.GetWish(r.Context(), id, viewerID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get wish for card")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"wish": wish,
		"card": view.Derive(wish, viewerID, isOwner),
	})
}

func (s *Server) handleCreateWish(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	var req models.CreateWishRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := s.session.Create(r.Context(), req, telegramID)
	if err != nil {
		s.logger.WithError(err).Error("failed to create wish")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathWishID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wish id")
		return
	}

	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	var req models.UpdateWishRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := s.session.Update(r.Context(), id, req, telegramID)
	if err != nil {
		s.logger.WithError(err).Error("failed to update wish")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathWishID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wish id")
		return
	}

	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	if err := s.session.Delete(r.Context(), id, telegramID); err != nil {
		s.logger.WithError(err).Error("failed to delete wish")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleBookWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathWishID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wish id")
		return
	}

	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	wish, err := s.session.Book(r.Context(), id, telegramID)
	if err != nil {
		s.logger.WithError(err).Warn("failed to book wish")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, wish)
}

func (s *Server) handleUnbookWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathWishID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wish id")
		return
	}

	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	wish, err := s.session.Unbook(r.Context(), id, telegramID)
	if err != nil {
		s.logger.WithError(err).Warn("failed to unbook wish")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, wish)
}

func (s *Server) handleFulfillWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathWishID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wish id")
		return
	}

	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	wish, err := s.session.Fulfill(r.Context(), id, telegramID)
	if err != nil {
		s.logger.WithError(err).Error("failed to fulfill wish")
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, wish)
}
