package ics

import (
	"sort"
	"time"

	appLog "calpeek/internal/log"
	"calpeek/internal/model"
)

// FilterAndSort drops occurrences outside w and orders the rest by start
// time. Equal starts keep input event order, then generation order. No
// deduplication is performed.
func FilterAndSort(occs []model.Occurrence, w model.Window) []model.Occurrence {
	out := make([]model.Occurrence, 0, len(occs))
	for _, occ := range occs {
		if !w.Overlaps(occ.Start, occ.End) {
			continue
		}
		out = append(out, occ)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Upcoming expands every event against w and returns the merged, ordered
// occurrence list. An unsupported RRULE aborts the whole run.
func Upcoming(events []model.Event, w model.Window) ([]model.Occurrence, error) {
	all := make([]model.Occurrence, 0, len(events))
	for _, ev := range events {
		occs, err := Expand(ev, w)
		if err != nil {
			appLog.Error("expand failed", err, "uid", ev.UID)
			return nil, err
		}
		all = append(all, occs...)
	}

	out := FilterAndSort(all, w)
	appLog.Info("upcoming occurrences computed",
		"events", len(events),
		"occurrences", len(out),
		"window_start", w.Start.Format(time.RFC3339),
		"window_end", w.End.Format(time.RFC3339),
	)
	return out, nil
}
