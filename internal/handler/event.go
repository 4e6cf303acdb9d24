package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mwieland/terminus/internal/event"
	"github.com/mwieland/terminus/internal/model"
	ws "github.com/mwieland/terminus/internal/websocket"
)

type EventHandler struct {
	store  *event.Store
	hub    *ws.Hub
	logger *slog.Logger
}

func NewEventHandler(store *event.Store, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{store: store, hub: hub, logger: logger}
}

type eventRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date,omitempty"`
	Reminder    *model.Reminder `json:"reminder,omitempty"`
}

// draft converts the wire request into a store draft. Unparseable times
// become zero instants so the store reports the matching validation kind
// instead of the handler inventing its own error shape.
func (req eventRequest) draft() model.Draft {
	d := model.Draft{
		Title:       req.Title,
		Description: req.Description,
		Reminder:    req.Reminder,
	}
	if t, err := time.Parse(time.RFC3339, req.StartDate); err == nil {
		d.StartDate = t
	}
	if req.EndDate != "" {
		var end time.Time
		if t, err := time.Parse(time.RFC3339, req.EndDate); err == nil {
			end = t
		}
		d.EndDate = &end
	}
	return d
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ev, err := h.store.Create(req.draft())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("event", "created", ev.ID, nil))
	writeJSON(w, http.StatusCreated, ev)
}

// List handles GET /api/events?start=...&end=...
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start and end query parameters are required"})
		return
	}

	start, err := parseFlexibleTime(startStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be RFC3339 or YYYY-MM-DD format"})
		return
	}

	end, err := parseFlexibleTime(endStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must be RFC3339 or YYYY-MM-DD format"})
		return
	}

	events := h.store.ListByDateRange(start, end)
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev := h.store.GetByID(r.PathValue("id"))
	if ev == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	writeJSON(w, http.StatusOK, ev)
}

// Update handles PUT /api/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ev, err := h.store.Update(r.PathValue("id"), req.draft())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("event", "updated", ev.ID, nil))
	writeJSON(w, http.StatusOK, ev)
}

// Delete handles DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.store.Delete(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	h.hub.Broadcast(ws.NewMessage("event", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) writeStoreError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Message,
			"kind":  string(verr.Kind),
		})
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	h.logger.Error("event store operation failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
