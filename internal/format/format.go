package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"calpeek/internal/config"
	"calpeek/internal/model"
)

const (
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
	dateTimeLayout = "2006-01-02 15:04"
)

// Options controls rendering. Format is one of the config.Format* values.
type Options struct {
	Format   string
	Days     int
	Location *time.Location
}

// Render writes the full report for occs to w.
func Render(w io.Writer, occs []model.Occurrence, opts Options) error {
	if opts.Format == config.FormatJSON {
		return writeJSON(w, occs, opts)
	}

	if len(occs) == 0 {
		_, err := fmt.Fprintf(w, "No events found in the next %d days\n", opts.Days)
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Upcoming events in the next %d days:\n", opts.Days)
	b.WriteString(strings.Repeat("-", 50))
	b.WriteString("\n")

	for i, occ := range occs {
		if opts.Format == config.FormatDetailed {
			if i > 0 {
				b.WriteString("\n")
				b.WriteString(strings.Repeat("=", 50))
				b.WriteString("\n\n")
			}
			b.WriteString(Detailed(occ))
		} else {
			b.WriteString(Simple(occ))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Simple renders "YYYY-MM-DD HH:MM-HH:MM: Summary - Description"; the
// description suffix is omitted when empty.
func Simple(occ model.Occurrence) string {
	line := occ.Start.Format(dateTimeLayout) + "-" + occ.End.Format(clockLayout) + ": " + occ.Summary
	if occ.Description != "" {
		line += " - " + occ.Description
	}
	return line
}

// Detailed renders one occurrence over several lines.
func Detailed(occ model.Occurrence) string {
	lines := []string{"Title: " + occ.Summary}

	if sameDay(occ.Start, occ.End) {
		lines = append(lines,
			"Date: "+occ.Start.Format(dateLayout),
			"Time: "+occ.Start.Format(clockLayout)+" - "+occ.End.Format(clockLayout),
		)
	} else {
		lines = append(lines,
			"Start: "+occ.Start.Format(dateTimeLayout),
			"End: "+occ.End.Format(dateTimeLayout),
		)
	}

	lines = append(lines, "Duration: "+humanDuration(occ.Duration()))

	if occ.Location != "" {
		lines = append(lines, "Location: "+occ.Location)
	}
	if strings.TrimSpace(occ.Description) != "" {
		lines = append(lines, "Description: "+occ.Description)
	}

	return strings.Join(lines, "\n")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d%(24*time.Hour)) / int(time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%d days, %d hours, %d minutes", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

// eventsResponse is the JSON document shape for --format json.
type eventsResponse struct {
	Events   []occurrenceDTO `json:"events"`
	Metadata metadataDTO     `json:"metadata"`
}

type metadataDTO struct {
	DaysAhead   int    `json:"days_ahead"`
	TotalEvents int    `json:"total_events"`
	Timezone    string `json:"timezone,omitempty"`
}

// occurrenceDTO is a JSON-friendly view of occurrences.
type occurrenceDTO struct {
	UID             string `json:"uid"`
	Summary         string `json:"summary"`
	Description     string `json:"description"`
	Location        string `json:"location,omitempty"`
	AllDay          bool   `json:"all_day"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

func writeJSON(w io.Writer, occs []model.Occurrence, opts Options) error {
	resp := eventsResponse{
		Events: make([]occurrenceDTO, 0, len(occs)),
		Metadata: metadataDTO{
			DaysAhead:   opts.Days,
			TotalEvents: len(occs),
		},
	}
	if opts.Location != nil {
		resp.Metadata.Timezone = opts.Location.String()
	}

	for _, occ := range occs {
		resp.Events = append(resp.Events, occurrenceDTO{
			UID:             occ.UID,
			Summary:         occ.Summary,
			Description:     occ.Description,
			Location:        occ.Location,
			AllDay:          occ.AllDay,
			Start:           occ.Start.Format(time.RFC3339),
			End:             occ.End.Format(time.RFC3339),
			DurationMinutes: int(occ.Duration() / time.Minute),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
