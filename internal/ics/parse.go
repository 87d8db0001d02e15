package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "calpeek/internal/log"
	"calpeek/internal/model"
)

const (
	propRecurrenceID = "RECURRENCE-ID"
	propRDate        = "RDATE"
	propDuration     = "DURATION"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Parse decodes an iCalendar payload into master events, normalized to the
// normalizer's reference zone.
//
//   - Blank input yields no events and no error.
//   - Text that is not a VCALENDAR yields *ParseError.
//   - RECURRENCE-ID VEVENTs are attached to the master(s) sharing their UID;
//     an override without a master is returned as a standalone event.
//   - RRULE is kept raw; expansion happens in expand.go.
func Parse(body []byte, norm *Normalizer) ([]model.Event, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(trimmed) == 0 {
		return nil, nil
	}
	if norm == nil {
		norm = NewNormalizer(nil)
	}

	const header = "BEGIN:VCALENDAR"
	if len(trimmed) < len(header) || !strings.EqualFold(string(trimmed[:len(header)]), header) {
		return nil, &ParseError{Err: errors.New("missing BEGIN:VCALENDAR")}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(trimmed))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var (
		masters   []model.Event
		overrides []model.Event
	)
	for i, comp := range cal.Events() {
		ev, perr := parseVEvent(i, comp, norm)
		if perr != nil {
			// Skip this event but keep the others.
			appLog.Debug("ics vevent skipped", "index", i, "err", perr)
			continue
		}
		if ev.IsOverride() {
			overrides = append(overrides, ev)
			continue
		}
		masters = append(masters, ev)
	}

	events := attachOverrides(masters, overrides)
	appLog.Debug("ics parse completed", "event_count", len(events), "override_count", len(overrides))
	return events, nil
}

// attachOverrides hands each override to exactly one master per UID: the
// first recurring master, or the first master when none recurs.
func attachOverrides(masters, overrides []model.Event) []model.Event {
	owner := make(map[string]int, len(masters))
	for i, m := range masters {
		j, seen := owner[m.UID]
		if !seen || (!masters[j].IsRecurring() && m.IsRecurring()) {
			owner[m.UID] = i
		}
	}

	out := masters
	for _, ov := range overrides {
		if i, ok := owner[ov.UID]; ok {
			masters[i].Overrides = append(masters[i].Overrides, ov)
			continue
		}
		appLog.Debug("override without master event; keeping as single event", "uid", ov.UID)
		out = append(out, ov)
	}
	return out
}

func parseVEvent(index int, ve *ical.VEvent, norm *Normalizer) (model.Event, error) {
	out := model.Event{Index: index}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return out, errors.New("missing DTSTART")
	}
	start, err := norm.Decode(dtStart.Value, dtStart.ICalParameters)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start.Time
	out.Zone = start.Zone
	out.AllDay = start.AllDay
	out.Floating = start.Floating

	out.Summary = textProp(ve, ical.ComponentPropertySummary)
	out.Description = textProp(ve, ical.ComponentPropertyDescription)
	out.Location = textProp(ve, ical.ComponentPropertyLocation)

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && strings.TrimSpace(p.Value) != "" {
		out.UID = strings.TrimSpace(p.Value)
	} else {
		out.UID = syntheticUID(index, dtStart.Value, out.Summary)
	}

	out.End = parseEnd(ve, start, norm, out.UID)

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = strings.TrimSpace(p.Value)
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		out.ExDates = append(out.ExDates, norm.DecodeList(p.Value, p.ICalParameters)...)
	}
	for _, p := range ve.GetProperties(propRDate) {
		out.RDates = append(out.RDates, norm.DecodeList(p.Value, p.ICalParameters)...)
	}

	if p := ve.GetProperty(propRecurrenceID); p != nil {
		rid, err := norm.Decode(p.Value, p.ICalParameters)
		if err != nil {
			appLog.Debug("ignoring unparseable RECURRENCE-ID", "uid", out.UID, "value", p.Value, "err", err)
		} else {
			t := rid.Time
			out.RecurrenceID = &t
		}
	}

	return out, nil
}

// parseEnd resolves DTEND, then DURATION, then falls back to the start.
// All-day events without either occupy their whole day. An end before the
// start collapses to zero duration.
func parseEnd(ve *ical.VEvent, start TimeValue, norm *Normalizer, uid string) time.Time {
	end := start.Time
	if start.AllDay {
		end = start.Time.AddDate(0, 0, 1)
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil && strings.TrimSpace(p.Value) != "" {
		tv, err := norm.Decode(p.Value, p.ICalParameters)
		if err != nil {
			appLog.Debug("ignoring unparseable DTEND", "uid", uid, "value", p.Value, "err", err)
		} else {
			end = tv.Time
		}
	} else if p := ve.GetProperty(propDuration); p != nil {
		d, err := parseDuration(p.Value)
		if err != nil {
			appLog.Debug("ignoring unparseable DURATION", "uid", uid, "value", p.Value, "err", err)
		} else if start.AllDay && d%(24*time.Hour) == 0 {
			end = start.Time.AddDate(0, 0, int(d/(24*time.Hour)))
		} else {
			end = start.Time.Add(d)
		}
	}

	if end.Before(start.Time) {
		appLog.Debug("end before start; using zero duration", "uid", uid)
		end = start.Time
	}
	return end
}

func textProp(ve *ical.VEvent, prop ical.ComponentProperty) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return ""
	}
	// golang-ical has already decoded TEXT escapes.
	return strings.TrimSpace(p.Value)
}

// syntheticUID derives a stable UID for events that lack one, so repeated
// runs over the same input agree.
func syntheticUID(index int, dtStart, summary string) string {
	name := fmt.Sprintf("calpeek:%d:%s:%s", index, dtStart, summary)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
