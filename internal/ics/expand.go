package ics

import (
	"math"
	"time"

	"github.com/teambition/rrule-go"

	appLog "calpeek/internal/log"
	"calpeek/internal/model"
)

// OccurrenceIterator lazily yields the occurrences of one event that
// intersect a window, in generation order. It handles:
//
//   - single non-recurring events
//   - RRULE/RDATE series, generated in the event's own zone
//   - EXDATE suppression
//   - RECURRENCE-ID overrides, including instances moved into the window
//
// Generation stops at the first start >= window.End, so unbounded rules
// always terminate.
type OccurrenceIterator struct {
	ev     model.Event
	window model.Window
	ref    *time.Location

	set  *rrule.Set
	next func() (time.Time, bool)

	overrides map[int64]model.Event
	excluded  map[int64]struct{}
	used      map[int64]bool

	singleDone bool
	scanDone   bool
	orphans    []model.Occurrence
	orphanPos  int
}

// NewOccurrenceIterator prepares expansion of ev against w. It fails only
// with *UnsupportedRuleError.
func NewOccurrenceIterator(ev model.Event, w model.Window) (*OccurrenceIterator, error) {
	it := &OccurrenceIterator{
		ev:        ev,
		window:    w,
		ref:       ev.Start.Location(),
		overrides: make(map[int64]model.Event, len(ev.Overrides)),
		excluded:  make(map[int64]struct{}, len(ev.ExDates)),
	}
	if it.ev.Zone == nil {
		it.ev.Zone = it.ref
	}
	if it.ev.End.Before(it.ev.Start) {
		it.ev.End = it.ev.Start
	}

	for _, ex := range ev.ExDates {
		it.excluded[ex.Unix()] = struct{}{}
	}
	for _, ov := range ev.Overrides {
		if ov.RecurrenceID == nil {
			continue
		}
		it.overrides[ov.RecurrenceID.Unix()] = ov
	}

	if ev.IsRecurring() {
		set, err := buildSet(it.ev)
		if err != nil {
			return nil, err
		}
		it.set = set
	}

	it.Reset()
	return it, nil
}

// Reset restarts the iterator from the beginning of the series.
func (it *OccurrenceIterator) Reset() {
	it.used = make(map[int64]bool, len(it.overrides))
	it.singleDone = false
	it.scanDone = false
	it.orphans = nil
	it.orphanPos = 0
	it.next = nil
	if it.set != nil {
		it.next = it.set.Iterator()
	}
}

// Next returns the next occurrence, or false when the series is exhausted
// within the window.
func (it *OccurrenceIterator) Next() (model.Occurrence, bool) {
	if !it.scanDone {
		if occ, ok := it.scan(); ok {
			return occ, true
		}
		it.scanDone = true
		it.orphans = it.collectOrphans()
	}

	if it.orphanPos < len(it.orphans) {
		occ := it.orphans[it.orphanPos]
		it.orphanPos++
		return occ, true
	}
	return model.Occurrence{}, false
}

func (it *OccurrenceIterator) scan() (model.Occurrence, bool) {
	if it.next == nil {
		if it.singleDone {
			return model.Occurrence{}, false
		}
		it.singleDone = true
		if occ, ok := it.instance(it.ev.Start); ok {
			return occ, true
		}
		return model.Occurrence{}, false
	}

	for {
		start, ok := it.next()
		if !ok || !start.Before(it.window.End) {
			it.next = func() (time.Time, bool) { return time.Time{}, false }
			return model.Occurrence{}, false
		}
		if occ, ok := it.instance(start); ok {
			return occ, true
		}
	}
}

// instance materializes the generated start, applying EXDATE and overrides,
// and reports whether the result intersects the window.
func (it *OccurrenceIterator) instance(start time.Time) (model.Occurrence, bool) {
	key := start.Unix()
	if _, ok := it.excluded[key]; ok {
		return model.Occurrence{}, false
	}

	var occ model.Occurrence
	if ov, ok := it.overrides[key]; ok {
		it.used[key] = true
		occ = it.fromOverride(ov)
	} else {
		occ = it.fromMaster(start)
	}

	if !it.window.Overlaps(occ.Start, occ.End) {
		return model.Occurrence{}, false
	}
	return occ, true
}

// collectOrphans returns overrides whose RECURRENCE-ID was not reached by
// the scan (moved in from beyond the window, or not produced by the rule)
// but which intersect the window themselves.
func (it *OccurrenceIterator) collectOrphans() []model.Occurrence {
	var out []model.Occurrence
	for _, ov := range it.ev.Overrides {
		if ov.RecurrenceID == nil {
			continue
		}
		key := ov.RecurrenceID.Unix()
		if it.used[key] {
			continue
		}
		if _, ok := it.excluded[key]; ok {
			continue
		}
		it.used[key] = true
		occ := it.fromOverride(ov)
		if it.window.Overlaps(occ.Start, occ.End) {
			out = append(out, occ)
		}
	}
	return out
}

func (it *OccurrenceIterator) fromMaster(start time.Time) model.Occurrence {
	start = start.In(it.ref)
	var end time.Time
	if it.ev.AllDay {
		end = start.AddDate(0, 0, allDaySpan(it.ev))
	} else {
		end = start.Add(it.ev.Duration())
	}
	return it.makeOccurrence(it.ev, start, end)
}

func (it *OccurrenceIterator) fromOverride(ov model.Event) model.Occurrence {
	end := ov.End
	if end.Before(ov.Start) {
		end = ov.Start
	}
	return it.makeOccurrence(ov, ov.Start.In(it.ref), end.In(it.ref))
}

func (it *OccurrenceIterator) makeOccurrence(src model.Event, start, end time.Time) model.Occurrence {
	return model.Occurrence{
		UID:         it.ev.UID,
		InstanceKey: start.Format(time.RFC3339Nano),
		Index:       it.ev.Index,
		Summary:     src.Summary,
		Description: src.Description,
		Location:    src.Location,
		AllDay:      src.AllDay,
		Start:       start,
		End:         end,
	}
}

// buildSet assembles RRULE + RDATE + EXDATE with DTSTART in the event's own
// zone, so wall-clock times survive DST transitions.
func buildSet(ev model.Event) (*rrule.Set, error) {
	dtstart := ev.Start.In(ev.Zone)
	set := &rrule.Set{}

	if ev.RRule != "" {
		opt, err := rrule.StrToROptionInLocation(ev.RRule, ev.Zone)
		if err != nil {
			return nil, &UnsupportedRuleError{UID: ev.UID, Rule: ev.RRule, Err: err}
		}
		opt.Dtstart = dtstart
		r, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, &UnsupportedRuleError{UID: ev.UID, Rule: ev.RRule, Err: err}
		}
		set.RRule(r)
	} else {
		// RDATE-only series: DTSTART is the first instance.
		set.RDate(dtstart)
	}

	for _, rd := range ev.RDates {
		set.RDate(rd.In(ev.Zone))
	}
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Zone))
	}
	return set, nil
}

// allDaySpan returns the number of calendar days an all-day event covers.
func allDaySpan(ev model.Event) int {
	return int(math.Round(ev.End.Sub(ev.Start).Hours() / 24))
}

// Expand collects every occurrence of ev within w.
func Expand(ev model.Event, w model.Window) ([]model.Occurrence, error) {
	it, err := NewOccurrenceIterator(ev, w)
	if err != nil {
		return nil, err
	}

	var out []model.Occurrence
	for {
		occ, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, occ)
	}

	appLog.Debug("expand: event expanded", "uid", ev.UID, "recurring", ev.IsRecurring(), "occurrences", len(out))
	return out, nil
}
