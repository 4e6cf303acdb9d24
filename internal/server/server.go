package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mwieland/terminus/internal/event"
	"github.com/mwieland/terminus/internal/handler"
	"github.com/mwieland/terminus/internal/middleware"
	"github.com/mwieland/terminus/internal/notify"
	"github.com/mwieland/terminus/internal/storage"
	ws "github.com/mwieland/terminus/internal/websocket"
)

type Server struct {
	hub       *ws.Hub
	eventH    *handler.EventHandler
	calendarH *handler.CalendarHandler
	pushH     *handler.PushHandler
	logger    *slog.Logger
}

// New wires the handlers over the event store, hub, and push facilities.
// pushStore may be nil (database unavailable); the push routes are simply
// not registered then.
func New(events *event.Store, pushStore *storage.PushStore, pushSvc *notify.Service, hub *ws.Hub, logger *slog.Logger) *Server {
	s := &Server{
		hub:       hub,
		eventH:    handler.NewEventHandler(events, hub, logger.With("component", "events")),
		calendarH: handler.NewCalendarHandler(events),
		logger:    logger,
	}
	if pushStore != nil {
		s.pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push"))
	}
	return s
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Event API
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	// Calendar grid data
	mux.HandleFunc("GET /api/calendar/month", s.calendarH.Month)
	mux.HandleFunc("GET /api/calendar/week", s.calendarH.Week)
	mux.HandleFunc("GET /api/calendar/day", s.calendarH.Day)

	// Push notification API
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket live sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
