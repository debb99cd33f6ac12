package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/models"
	"github.com/AnshRaj112/karmnik-backend/internal/services"
	"github.com/AnshRaj112/karmnik-backend/internal/store"
	"github.com/AnshRaj112/karmnik-backend/internal/view"
	"github.com/AnshRaj112/karmnik-backend/pkg/clientip"
)

const writeTimeout = 5 * time.Second

// Messages shown to the user by the page.
const (
	msgCreateFailed = "Wystąpił błąd podczas zapisywania."
	msgDeleteFailed = "Nie udało się usunąć wpisu."
	msgNotConfirmed = "Usunięcie wymaga potwierdzenia."
	msgInvalidID    = "Nieprawidłowy identyfikator wpisu."
)

// FeedingHandler serves the feeder page, its REST API and the live WebSocket.
type FeedingHandler struct {
	svc            *services.FeedingService
	hub            *services.FeedingHub
	formatter      view.Formatter
	allowedOrigins []string
	writeKey       bool
}

type FeedingHandlerOptions struct {
	AllowedOrigins   []string
	WriteKeyRequired bool
}

func NewFeedingHandler(svc *services.FeedingService, hub *services.FeedingHub, f view.Formatter, opts FeedingHandlerOptions) *FeedingHandler {
	return &FeedingHandler{
		svc:            svc,
		hub:            hub,
		formatter:      f,
		allowedOrigins: opts.AllowedOrigins,
		writeKey:       opts.WriteKeyRequired,
	}
}

type FeedingResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Entry   *models.FeedingEntry `json:"entry,omitempty"`
}

type ListFeedingsResponse struct {
	Success bool                  `json:"success"`
	Version uint64                `json:"version"`
	TakenAt time.Time             `json:"taken_at,omitzero"`
	Entries []models.FeedingEntry `json:"entries"`
	Page    view.Page             `json:"page"`
}

// currentPage builds the page from the hub's latest snapshot.
func (h *FeedingHandler) currentPage() (models.Snapshot, view.Page) {
	snap, loaded := h.hub.Current()
	return snap, view.BuildPage(snap, loaded, h.formatter)
}

// ListFeedings returns the latest live snapshot.
func (h *FeedingHandler) ListFeedings(w http.ResponseWriter, r *http.Request) {
	snap, page := h.currentPage()
	entries := snap.Entries
	if entries == nil {
		entries = []models.FeedingEntry{}
	}
	writeJSON(w, http.StatusOK, ListFeedingsResponse{
		Success: true,
		Version: snap.Version,
		TakenAt: snap.TakenAt,
		Entries: entries,
		Page:    page,
	})
}

// CreateFeeding records a feeding now. The new entry reaches viewers through the live snapshot.
func (h *FeedingHandler) CreateFeeding(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	entry, err := h.svc.Feed(ctx)
	if err != nil {
		logger.Warn("create feeding request failed", "module", "handlers", "ip", clientip.ForwardedClientIP(r), "error", err)
		writeJSON(w, http.StatusInternalServerError, FeedingResponse{Success: false, Message: msgCreateFailed})
		return
	}

	writeJSON(w, http.StatusCreated, FeedingResponse{Success: true, Entry: &entry})
}

// DeleteFeeding removes an entry. The browser asks the user first and sends
// the answer as ?confirm=true.
func (h *FeedingHandler) DeleteFeeding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, FeedingResponse{Success: false, Message: msgInvalidID})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	confirmed, err := h.svc.Delete(ctx, id, queryConfirmer(r))
	switch {
	case !confirmed:
		writeJSON(w, http.StatusPreconditionRequired, FeedingResponse{Success: false, Message: msgNotConfirmed})
	case errors.Is(err, store.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, FeedingResponse{Success: false, Message: msgInvalidID})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, FeedingResponse{Success: false, Message: msgDeleteFailed})
	default:
		writeJSON(w, http.StatusOK, FeedingResponse{Success: true})
	}
}

// queryConfirmer answers with the confirm query parameter.
func queryConfirmer(r *http.Request) services.Confirmer {
	return services.ConfirmFunc(func(string) bool {
		ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		return ok
	})
}

// Health reports liveness and whether the first snapshot has been loaded.
func (h *FeedingHandler) Health(w http.ResponseWriter, r *http.Request) {
	_, loaded := h.hub.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"loaded":      loaded,
		"subscribers": h.hub.Subscribers(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
