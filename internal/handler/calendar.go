package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mwieland/terminus/internal/calendar"
	"github.com/mwieland/terminus/internal/event"
)

type CalendarHandler struct {
	store *event.Store
}

func NewCalendarHandler(store *event.Store) *CalendarHandler {
	return &CalendarHandler{store: store}
}

// Month handles GET /api/calendar/month?year=2026&month=9
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := now.Year()
	month := now.Month()

	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year must be an integer"})
			return
		}
		year = y
	}
	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be 1-12"})
			return
		}
		month = time.Month(m)
	}

	// The grid shows leading and trailing other-month days, so bucket from
	// the full collection rather than a month-bounded range query.
	writeJSON(w, http.StatusOK, calendar.MonthGrid(year, month, h.store.All()))
}

type weekDay struct {
	Date   time.Time        `json:"date"`
	Blocks []calendar.Block `json:"blocks"`
}

// Week handles GET /api/calendar/week?date=2026-09-03
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	days := calendar.WeekDays(date)
	out := make([]weekDay, 0, len(days))
	for _, day := range days {
		out = append(out, weekDay{Date: day, Blocks: h.blocksFor(day)})
	}

	writeJSON(w, http.StatusOK, out)
}

// Day handles GET /api/calendar/day?date=2026-09-03
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	local := date.Local()
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	writeJSON(w, http.StatusOK, weekDay{Date: day, Blocks: h.blocksFor(day)})
}

func (h *CalendarHandler) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("date")
	if s == "" {
		return time.Now(), true
	}
	date, err := parseFlexibleTime(s)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be RFC3339 or YYYY-MM-DD format"})
		return time.Time{}, false
	}
	return date, true
}

func (h *CalendarHandler) blocksFor(day time.Time) []calendar.Block {
	events := h.store.ListByDateRange(day, day.AddDate(0, 0, 1))
	blocks := calendar.DayBlocks(day, events)
	if blocks == nil {
		blocks = []calendar.Block{}
	}
	return blocks
}
