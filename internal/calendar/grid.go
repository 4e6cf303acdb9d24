// Package calendar computes the data behind the month, week, and day views.
// It is pure layout math over event store query results; rendering is the
// UI's job.
package calendar

import (
	"time"

	"github.com/mwieland/terminus/internal/model"
)

const (
	// minBlockMinutes keeps very short events clickable in the day/week grids.
	minBlockMinutes = 30
	// defaultDurationMinutes sizes events that have no end date.
	defaultDurationMinutes = 60
)

// DayCell is one cell of the month grid.
type DayCell struct {
	Date    time.Time     `json:"date"`
	InMonth bool          `json:"in_month"`
	Events  []model.Event `json:"events"`
}

// Month is a complete month grid: full weeks, Monday first, padded with
// leading and trailing other-month days.
type Month struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Weeks [][]DayCell `json:"weeks"`
}

// MonthGrid builds the grid for the given month. Events are bucketed onto
// cells by the local calendar day of their start date.
func MonthGrid(year int, month time.Month, events []model.Event) Month {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
	leading := mondayIndex(firstDay.Weekday())

	byDay := make(map[string][]model.Event)
	for _, e := range events {
		key := e.StartDate.Local().Format(time.DateOnly)
		byDay[key] = append(byDay[key], e)
	}

	totalCells := leading + daysInMonth
	if rem := totalCells % 7; rem != 0 {
		totalCells += 7 - rem
	}

	cells := make([]DayCell, 0, totalCells)
	start := firstDay.AddDate(0, 0, -leading)
	for i := 0; i < totalCells; i++ {
		date := start.AddDate(0, 0, i)
		cells = append(cells, DayCell{
			Date:    date,
			InMonth: date.Month() == month && date.Year() == year,
			Events:  byDay[date.Format(time.DateOnly)],
		})
	}

	weeks := make([][]DayCell, 0, totalCells/7)
	for i := 0; i < totalCells; i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}

	return Month{Year: year, Month: month, Weeks: weeks}
}

// WeekDays returns the seven days of the Monday-started week containing
// date, each at local midnight.
func WeekDays(date time.Time) []time.Time {
	local := date.Local()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	monday := midnight.AddDate(0, 0, -mondayIndex(midnight.Weekday()))

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// Block is an event positioned within a day column, in minutes from local
// midnight.
type Block struct {
	Event       model.Event `json:"event"`
	StartMinute int         `json:"start_minute"`
	EndMinute   int         `json:"end_minute"`
}

// DayBlocks positions the events starting on the given local day. Events
// without an end date get a one-hour block; everything is at least 30
// minutes tall and clamped to the end of the day.
func DayBlocks(date time.Time, events []model.Event) []Block {
	local := date.Local()
	key := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local).Format(time.DateOnly)

	var blocks []Block
	for _, e := range events {
		start := e.StartDate.Local()
		if start.Format(time.DateOnly) != key {
			continue
		}

		startMinute := start.Hour()*60 + start.Minute()
		endMinute := startMinute + defaultDurationMinutes
		if e.EndDate != nil {
			end := e.EndDate.Local()
			endMinute = end.Hour()*60 + end.Minute()
			if end.Format(time.DateOnly) != key {
				// Spills into a later day; render to local midnight.
				endMinute = 24 * 60
			}
		}
		if endMinute-startMinute < minBlockMinutes {
			endMinute = startMinute + minBlockMinutes
		}
		if endMinute > 24*60 {
			endMinute = 24 * 60
		}

		blocks = append(blocks, Block{Event: e, StartMinute: startMinute, EndMinute: endMinute})
	}
	return blocks
}

// mondayIndex maps a weekday to its offset from Monday (Mon=0 .. Sun=6).
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
