package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mwieland/terminus/internal/model"
	"github.com/mwieland/terminus/internal/notify"
	"github.com/mwieland/terminus/internal/storage"
)

type PushHandler struct {
	pushStore *storage.PushStore
	service   *notify.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *storage.PushStore, svc *notify.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint, p256dh, and auth are required"})
		return
	}

	sub, err := h.pushStore.Upsert(req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("save push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save subscription"})
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions handles GET /api/push/subscriptions
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.pushStore.List()
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list subscriptions"})
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}

	writeJSON(w, http.StatusOK, subs)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.pushStore.Delete(id); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete subscription"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}
