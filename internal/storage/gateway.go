package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mwieland/terminus/internal/model"
)

// Record keys in the kv table. These must stay stable across versions so
// older data files keep loading.
const (
	eventsKey = "terminus_events"
	shownKey  = "terminus_reminder_shown"
	probeKey  = "terminus_storage_probe"
)

// Gateway is the durable load/save layer for the event list and the
// shown-reminder set. Both live as wholesale JSON records in a kv table.
//
// The gateway never propagates storage failures to callers as crashes:
// when the store is unavailable, writes are no-ops and reads return empty
// results; corrupt payloads are logged and treated as empty.
type Gateway struct {
	db        *sql.DB
	logger    *slog.Logger
	available bool
}

// NewGateway probes the kv table once with a write/delete cycle and caches
// the result for the process lifetime. An unavailable store is warned about
// exactly once, here.
func NewGateway(db *sql.DB, logger *slog.Logger) *Gateway {
	g := &Gateway{db: db, logger: logger}
	g.available = g.probe()
	if !g.available {
		g.logger.Warn("local storage unavailable, running memory-only; nothing will be saved")
	}
	return g
}

// NewUnavailable returns a gateway in permanent memory-only mode, used when
// the database could not be opened at all.
func NewUnavailable(logger *slog.Logger) *Gateway {
	logger.Warn("local storage unavailable, running memory-only; nothing will be saved")
	return &Gateway{logger: logger}
}

func (g *Gateway) probe() bool {
	if g.db == nil {
		return false
	}
	if err := g.put(probeKey, "ok"); err != nil {
		return false
	}
	if _, err := g.db.Exec(`DELETE FROM kv WHERE key = ?`, probeKey); err != nil {
		return false
	}
	return true
}

// Available reports whether the underlying store accepted the startup probe.
func (g *Gateway) Available() bool {
	return g.available
}

// SaveEvents overwrites the persisted event list. A no-op when the store is
// unavailable. The returned error is informational; the caller's in-memory
// state is expected to stand regardless.
func (g *Gateway) SaveEvents(events []model.Event) error {
	return g.save(eventsKey, events)
}

// LoadEvents returns the persisted event list, or an empty list when the
// store is unavailable, the record is missing, or the payload is corrupt.
func (g *Gateway) LoadEvents() []model.Event {
	data, ok := g.loadRaw(eventsKey)
	if !ok {
		return nil
	}
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		g.logger.Error("corrupt record, treating as empty", "key", eventsKey, "error", err)
		return nil
	}
	return events
}

// SaveShownReminders overwrites the persisted set of event ids whose
// reminders have already fired.
func (g *Gateway) SaveShownReminders(ids []string) error {
	return g.save(shownKey, ids)
}

// LoadShownReminders returns the persisted shown-reminder ids, empty on any
// storage problem.
func (g *Gateway) LoadShownReminders() []string {
	data, ok := g.loadRaw(shownKey)
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		g.logger.Error("corrupt record, treating as empty", "key", shownKey, "error", err)
		return nil
	}
	return ids
}

func (g *Gateway) save(key string, v any) error {
	if !g.available {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		g.logger.Error("marshal record", "key", key, "error", err)
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := g.put(key, string(data)); err != nil {
		if isDiskFull(err) {
			g.logger.Warn("local storage is full; delete old events to free space", "key", key)
		} else {
			g.logger.Error("save record", "key", key, "error", err)
		}
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// loadRaw fetches the record's payload. Decoding happens per type in the
// callers, into a local value, so a payload that fails mid-decode can never
// leak a partial result.
func (g *Gateway) loadRaw(key string) ([]byte, bool) {
	if !g.available {
		return nil, false
	}

	var value string
	err := g.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		g.logger.Error("load record", "key", key, "error", err)
		return nil, false
	}
	return []byte(value), true
}

func (g *Gateway) put(key, value string) error {
	_, err := g.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}

func isDiskFull(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database or disk is full")
}
