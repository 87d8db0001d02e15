package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	appLog "calpeek/internal/log"
)

const (
	layoutUTC      = "20060102T150405Z"
	layoutDateTime = "20060102T150405"
	layoutDate     = "20060102"
)

// TimeValue is a decoded DATE or DATE-TIME property value.
type TimeValue struct {
	// Time is the instant expressed in the reference zone.
	Time time.Time
	// Zone is the location the value's wall clock was written in.
	Zone     *time.Location
	AllDay   bool
	Floating bool
}

// Normalizer resolves iCalendar date/time values into a single reference
// timezone.
type Normalizer struct {
	ref   *time.Location
	zones map[string]*time.Location
}

// NewNormalizer returns a Normalizer targeting ref (time.Local when nil).
func NewNormalizer(ref *time.Location) *Normalizer {
	if ref == nil {
		ref = time.Local
	}
	return &Normalizer{
		ref:   ref,
		zones: make(map[string]*time.Location),
	}
}

// Location returns the reference zone.
func (n *Normalizer) Location() *time.Location {
	return n.ref
}

// Decode parses one value such as 20250703T090000Z, 20250703T090000 (with
// or without TZID) or 20250703.
//
//   - date-only (or VALUE=DATE): local midnight in the reference zone
//   - floating: wall clock interpreted in the reference zone
//   - Z suffix / TZID: instant preserved, converted to the reference zone
//
// An unknown TZID is treated as UTC.
func (n *Normalizer) Decode(value string, params map[string][]string) (TimeValue, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return TimeValue{}, errors.New("empty time value")
	}

	if strings.EqualFold(param(params, "VALUE"), "DATE") || !strings.ContainsAny(v, "Tt") {
		if len(v) > len(layoutDate) {
			v = v[:len(layoutDate)]
		}
		d, err := time.ParseInLocation(layoutDate, v, n.ref)
		if err != nil {
			return TimeValue{}, fmt.Errorf("parse date %q: %w", value, err)
		}
		return TimeValue{Time: d, Zone: n.ref, AllDay: true}, nil
	}

	v = strings.ToUpper(v)
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse(layoutUTC, v)
		if err != nil {
			return TimeValue{}, fmt.Errorf("parse utc date-time %q: %w", value, err)
		}
		return TimeValue{Time: t.In(n.ref), Zone: time.UTC}, nil
	}

	tzid := param(params, "TZID")
	if tzid == "" {
		t, err := time.ParseInLocation(layoutDateTime, v, n.ref)
		if err != nil {
			return TimeValue{}, fmt.Errorf("parse floating date-time %q: %w", value, err)
		}
		return TimeValue{Time: t, Zone: n.ref, Floating: true}, nil
	}

	loc := n.zone(tzid)
	t, err := time.ParseInLocation(layoutDateTime, v, loc)
	if err != nil {
		return TimeValue{}, fmt.Errorf("parse date-time %q (TZID=%s): %w", value, tzid, err)
	}
	return TimeValue{Time: t.In(n.ref), Zone: loc}, nil
}

// DecodeList splits a comma-separated EXDATE/RDATE value. Entries that fail
// to parse are logged and skipped.
func (n *Normalizer) DecodeList(value string, params map[string][]string) []time.Time {
	var out []time.Time
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// PERIOD values (start/end) carry their instant in the first half.
		if i := strings.IndexByte(part, '/'); i > 0 {
			part = part[:i]
		}
		tv, err := n.Decode(part, params)
		if err != nil {
			appLog.Debug("skipping unparseable date list entry", "value", part, "err", err)
			continue
		}
		out = append(out, tv.Time)
	}
	return out
}

func (n *Normalizer) zone(tzid string) *time.Location {
	if loc, ok := n.zones[tzid]; ok {
		return loc
	}
	loc, err := loadLocation(tzid)
	if err != nil {
		appLog.Debug("unknown TZID; treating as UTC", "tzid", tzid, "err", err)
		loc = time.UTC
	}
	n.zones[tzid] = loc
	return loc
}

// loadLocation resolves a TZID, accepting the quoted and "/vendor/path/Area/City"
// forms some producers emit.
func loadLocation(tzid string) (*time.Location, error) {
	name := strings.Trim(strings.TrimSpace(tzid), `"`)
	if name == "" {
		return nil, errors.New("empty TZID")
	}
	if strings.EqualFold(name, "UTC") || strings.EqualFold(name, "GMT") || name == "Z" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if strings.HasPrefix(name, "/") {
		parts := strings.Split(strings.Trim(name, "/"), "/")
		for i := 1; i < len(parts); i++ {
			if l, lerr := time.LoadLocation(strings.Join(parts[i:], "/")); lerr == nil {
				return l, nil
			}
		}
	}
	return nil, err
}

// ResolveLocation returns the named IANA zone, or time.Local when the name is
// empty or unknown.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := loadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func param(params map[string][]string, key string) string {
	for k, vs := range params {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
	}
	return ""
}
