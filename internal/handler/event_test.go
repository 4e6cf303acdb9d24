package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwieland/terminus/internal/event"
	"github.com/mwieland/terminus/internal/model"
	"github.com/mwieland/terminus/internal/server"
	ws "github.com/mwieland/terminus/internal/websocket"
)

// memPersister keeps the collection in memory; the HTTP tests exercise the
// API surface, not the database.
type memPersister struct {
	events []model.Event
}

func (m *memPersister) SaveEvents(events []model.Event) error {
	m.events = append([]model.Event(nil), events...)
	return nil
}

func (m *memPersister) LoadEvents() []model.Event {
	return append([]model.Event(nil), m.events...)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.Default()
	store := event.NewStore(&memPersister{}, logger)
	srv := server.New(store, nil, nil, ws.NewHub(logger), logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func futureRFC3339(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func TestCreateEvent(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/events", map[string]any{
		"title":       "  Dentist  ",
		"description": "Cleaning",
		"start_date":  futureRFC3339(24 * time.Hour),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var ev model.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ev.ID == "" {
		t.Error("created event has no id")
	}
	if ev.Title != "Dentist" {
		t.Errorf("title = %q, want trimmed %q", ev.Title, "Dentist")
	}
	if ev.Reminder.Enabled || ev.Reminder.MinutesBefore != model.DefaultReminderMinutes {
		t.Errorf("default reminder = %+v", ev.Reminder)
	}
}

func TestCreateRejectsInvalidTitle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/events", map[string]any{
		"title":      "   ",
		"start_date": futureRFC3339(24 * time.Hour),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var errResp struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Kind != "title-invalid" {
		t.Errorf("kind = %q, want title-invalid", errResp.Kind)
	}
	if errResp.Error == "" {
		t.Error("error message missing")
	}
}

func TestCreateRejectsUnparseableStartDate(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/events", map[string]any{
		"title":      "Dentist",
		"start_date": "tomorrow-ish",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var errResp struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Kind != "start-invalid" {
		t.Errorf("kind = %q, want start-invalid", errResp.Kind)
	}
}

func TestGetUnknownEventReturns404(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/events/no-such-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestEventLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/events", map[string]any{
		"title":      "Standup",
		"start_date": futureRFC3339(24 * time.Hour),
		"reminder":   map[string]any{"enabled": true, "minutes_before": 10},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", resp.StatusCode, body)
	}
	var created model.Event
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	url := ts.URL + "/api/events/" + created.ID

	resp, body = doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPut, url, map[string]any{
		"title":      "Standup (moved)",
		"start_date": futureRFC3339(48 * time.Hour),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", resp.StatusCode, body)
	}
	var updated model.Event
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("update changed the id: %q vs %q", updated.ID, created.ID)
	}
	if updated.Title != "Standup (moved)" {
		t.Errorf("title = %q", updated.Title)
	}
	if !updated.Reminder.Enabled || updated.Reminder.MinutesBefore != 10 {
		t.Errorf("reminder settings not preserved: %+v", updated.Reminder)
	}

	resp, _ = doJSON(t, http.MethodDelete, url, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, url, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateUnknownEventReturns404(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/events/no-such-id", map[string]any{
		"title":      "Anything",
		"start_date": futureRFC3339(24 * time.Hour),
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListRequiresRange(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/events", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListFiltersByRange(t *testing.T) {
	ts := newTestServer(t)

	inside := time.Now().Add(24 * time.Hour).UTC()
	outside := time.Now().Add(10 * 24 * time.Hour).UTC()
	for _, start := range []time.Time{inside, outside} {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/events", map[string]any{
			"title":      "Event",
			"start_date": start.Format(time.RFC3339),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status = %d, body = %s", resp.StatusCode, body)
		}
	}

	url := fmt.Sprintf("%s/api/events?start=%s&end=%s",
		ts.URL,
		inside.Add(-time.Hour).Format(time.RFC3339),
		inside.Add(time.Hour).Format(time.RFC3339))
	resp, body := doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", resp.StatusCode, body)
	}

	var events []model.Event
	if err := json.Unmarshal(body, &events); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events in range, want 1", len(events))
	}
	if !events[0].StartDate.Equal(inside.Truncate(time.Second)) {
		t.Errorf("listed event starts at %v, want %v", events[0].StartDate, inside)
	}
}

func TestCalendarMonthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/calendar/month?year=2026&month=9", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var month struct {
		Year  int                 `json:"year"`
		Month time.Month          `json:"month"`
		Weeks [][]json.RawMessage `json:"weeks"`
	}
	if err := json.Unmarshal(body, &month); err != nil {
		t.Fatalf("decode month: %v", err)
	}
	if month.Year != 2026 || month.Month != time.September {
		t.Errorf("grid for %d-%d, want 2026-9", month.Year, month.Month)
	}
	if len(month.Weeks) != 5 {
		t.Errorf("got %d weeks, want 5", len(month.Weeks))
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q", health.Status)
	}
}
