package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mwieland/terminus/internal/model"
)

// EventSource is the slice of the event store the engine reads each cycle.
type EventSource interface {
	All() []model.Event
}

// ShownStore records which event ids have already triggered a notification.
type ShownStore interface {
	LoadShownReminders() []string
	SaveShownReminders(ids []string) error
}

// Notifier delivers a reminder, best-effort. The engine does not distinguish
// delivery outcomes; any attempt counts as shown.
type Notifier interface {
	Notify(title, body string)
}

// Engine polls the event store on a fixed cadence and fires notifications
// for reminders whose window [reminderTime, startDate) contains now. A
// window that passes entirely unobserved never fires retroactively.
type Engine struct {
	mu       sync.Mutex
	events   EventSource
	shown    ShownStore
	notifier Notifier
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	// Overridable in tests.
	now func() time.Time

	onFired func(ev model.Event)
}

// NewEngine creates an engine checking every 60 seconds.
func NewEngine(events EventSource, shown ShownStore, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		events:   events,
		shown:    shown,
		notifier: notifier,
		logger:   logger,
		interval: 60 * time.Second,
		now:      time.Now,
	}
}

// OnFired registers a callback invoked once per fired reminder, in addition
// to the Notifier. Used to mirror firings to connected UIs. Must be set
// before Start.
func (e *Engine) OnFired(fn func(ev model.Event)) {
	e.onFired = fn
}

// Start runs one check immediately, then checks on the engine's cadence
// until the context is cancelled or Stop is called. Starting a running
// engine restarts it rather than stacking cycles.
func (e *Engine) Start(ctx context.Context) {
	e.Stop()

	e.mu.Lock()
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	e.logger.Info("reminder engine started", "interval", e.interval)

	go func() {
		defer close(done)

		e.check()

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.check()
			}
		}
	}()
}

// Stop cancels the recurring check and waits for the in-flight cycle to
// finish. Safe to call on a stopped engine.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
		e.logger.Info("reminder engine stopped")
	}
}

// check is one cycle: scan every enabled, not-yet-shown reminder and fire
// those whose window contains now. The shown set is persisted after each
// firing, so a crash mid-cycle loses at most the in-flight notifications.
func (e *Engine) check() {
	now := e.now()

	shownIDs := e.shown.LoadShownReminders()
	shown := make(map[string]struct{}, len(shownIDs))
	for _, id := range shownIDs {
		shown[id] = struct{}{}
	}

	for _, ev := range e.events.All() {
		if !ev.Reminder.Enabled {
			continue
		}
		if _, ok := shown[ev.ID]; ok {
			continue
		}
		if now.Before(ev.ReminderTime()) || !now.Before(ev.StartDate) {
			continue
		}

		e.logger.Info("reminder due", "event_id", ev.ID, "title", ev.Title)
		e.notifier.Notify(
			fmt.Sprintf("Reminder: %s", ev.Title),
			fmt.Sprintf("Starts at %s", ev.StartDate.Local().Format("15:04")),
		)
		if e.onFired != nil {
			e.onFired(ev)
		}

		shownIDs = append(shownIDs, ev.ID)
		shown[ev.ID] = struct{}{}
		if err := e.shown.SaveShownReminders(shownIDs); err != nil {
			e.logger.Warn("shown-reminder set not persisted", "event_id", ev.ID, "error", err)
		}
	}
}
