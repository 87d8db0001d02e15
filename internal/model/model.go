package model

import "time"

// Event represents a logical calendar event (one VEVENT) before recurrence
// expansion. Start/End are already normalized into the reference timezone.
type Event struct {
	UID string

	// Index is the position of the VEVENT in the input; it breaks ties
	// between occurrences that share a start instant.
	Index int

	Summary     string
	Description string
	Location    string

	AllDay   bool
	Floating bool

	Start time.Time
	End   time.Time

	// Zone is the location whose wall clock the event is defined in
	// (TZID, UTC, or the reference zone for floating and all-day values).
	// Recurrences are generated in this zone.
	Zone *time.Location

	RRule   string
	RDates  []time.Time
	ExDates []time.Time

	// RecurrenceID is set when this VEVENT overrides a single instance of a
	// recurring series (RECURRENCE-ID).
	RecurrenceID *time.Time

	// Overrides holds the RECURRENCE-ID instances attached to a master event.
	Overrides []Event
}

// IsOverride reports whether the event replaces one instance of a series.
func (e Event) IsOverride() bool {
	return e.RecurrenceID != nil
}

// IsRecurring reports whether the event generates more than its own DTSTART.
func (e Event) IsRecurring() bool {
	return e.RRule != "" || len(e.RDates) > 0
}

// Duration returns End-Start, never negative.
func (e Event) Duration() time.Duration {
	d := e.End.Sub(e.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Occurrence represents a single concrete instance of an event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	UID string

	// InstanceKey identifies a single occurrence of a recurring event,
	// derived from the start time.
	InstanceKey string

	// Index is the input position of the event that produced the occurrence.
	Index int

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the reference timezone.
	Start time.Time
	End   time.Time
}

// Duration returns End-Start.
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Window is a half-open [Start, End) range of instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window covering the given number of days from now.
func NewWindow(now time.Time, days int) Window {
	return Window{
		Start: now,
		End:   now.AddDate(0, 0, days),
	}
}

// Overlaps reports whether [start, end) intersects the window. A zero-length
// interval intersects when its start lies inside the window.
func (w Window) Overlaps(start, end time.Time) bool {
	if !start.Before(w.End) {
		return false
	}
	if !end.After(start) {
		return !start.Before(w.Start)
	}
	return end.After(w.Start)
}

