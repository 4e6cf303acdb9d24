package model

import "time"

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500

	// DefaultReminderMinutes is used when a draft enables no reminder settings.
	DefaultReminderMinutes = 15
)

// Reminder holds the notification settings attached to an event.
type Reminder struct {
	Enabled       bool `json:"enabled"`
	MinutesBefore int  `json:"minutes_before"`
}

// Event is a titled, time-bound appointment. EndDate is nil for events
// without a fixed end. Created and Modified are stamped by the event store,
// never by callers.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Reminder    Reminder   `json:"reminder"`
	Created     time.Time  `json:"created"`
	Modified    time.Time  `json:"modified"`
}

// Clone returns a copy of e sharing no pointers with the original.
func (e Event) Clone() Event {
	c := e
	if e.EndDate != nil {
		end := *e.EndDate
		c.EndDate = &end
	}
	return c
}

// ReminderTime is the instant at which the event's reminder becomes due.
func (e Event) ReminderTime() time.Time {
	return e.StartDate.Add(-time.Duration(e.Reminder.MinutesBefore) * time.Minute)
}

// Draft is a caller-supplied, not-yet-validated field set for creating or
// updating an event. A nil Reminder means "no reminder settings supplied":
// create falls back to a disabled default, update keeps the existing settings.
type Draft struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
	Reminder    *Reminder
}
