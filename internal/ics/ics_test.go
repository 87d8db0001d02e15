package ics

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"calpeek/internal/model"
)

// calendar wraps VEVENT lines into a CRLF-delimited VCALENDAR payload.
func calendar(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//calpeek//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR")
	return []byte(strings.Join(all, "\r\n") + "\r\n")
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func mustParse(t *testing.T, body []byte, ref *time.Location) []model.Event {
	t.Helper()
	events, err := Parse(body, NewNormalizer(ref))
	require.NoError(t, err)
	return events
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func starts(occs []model.Occurrence) []time.Time {
	out := make([]time.Time, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.Start.UTC())
	}
	return out
}
