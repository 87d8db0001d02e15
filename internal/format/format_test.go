package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calpeek/internal/config"
	"calpeek/internal/model"
)

func teamMeeting() model.Occurrence {
	return model.Occurrence{
		UID:         "team-1",
		Summary:     "Team Meeting",
		Description: "Weekly team sync meeting",
		Start:       time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 7, 3, 11, 0, 0, 0, time.UTC),
	}
}

func TestSimple(t *testing.T) {
	assert.Equal(t, "2025-07-03 10:00-11:00: Team Meeting - Weekly team sync meeting", Simple(teamMeeting()))

	occ := teamMeeting()
	occ.Description = ""
	assert.Equal(t, "2025-07-03 10:00-11:00: Team Meeting", Simple(occ))
}

func TestDetailed(t *testing.T) {
	got := Detailed(teamMeeting())
	want := strings.Join([]string{
		"Title: Team Meeting",
		"Date: 2025-07-03",
		"Time: 10:00 - 11:00",
		"Duration: 1 hours, 0 minutes",
		"Description: Weekly team sync meeting",
	}, "\n")
	assert.Equal(t, want, got)
	assert.Greater(t, len(got), len(Simple(teamMeeting())))
}

func TestDetailedMultiDayAndNoDescription(t *testing.T) {
	occ := model.Occurrence{
		Summary:  "Conference",
		Location: "Berlin",
		Start:    time.Date(2025, 7, 3, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 7, 5, 11, 30, 0, 0, time.UTC),
	}

	got := Detailed(occ)
	assert.Contains(t, got, "Start: 2025-07-03 09:00")
	assert.Contains(t, got, "End: 2025-07-05 11:30")
	assert.Contains(t, got, "Duration: 2 days, 2 hours, 30 minutes")
	assert.Contains(t, got, "Location: Berlin")
	assert.NotContains(t, got, "Description:")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
	assert.Equal(t, "2 hours, 15 minutes", humanDuration(135*time.Minute))
	assert.Equal(t, "0 minutes", humanDuration(-time.Minute))
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, Options{Format: config.FormatSimple, Days: 3}))
	assert.Equal(t, "No events found in the next 3 days\n", buf.String())
}

func TestRenderSimpleHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, []model.Occurrence{teamMeeting()}, Options{Format: config.FormatSimple, Days: 7}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Upcoming events in the next 7 days:", lines[0])
	assert.Equal(t, strings.Repeat("-", 50), lines[1])
	assert.Equal(t, Simple(teamMeeting()), lines[2])
}

func TestRenderDetailedSeparators(t *testing.T) {
	var buf bytes.Buffer
	occs := []model.Occurrence{teamMeeting(), teamMeeting()}
	require.NoError(t, Render(&buf, occs, Options{Format: config.FormatDetailed, Days: 7}))

	assert.Equal(t, 1, strings.Count(buf.String(), strings.Repeat("=", 50)))
	assert.Contains(t, buf.String(), "\n\n"+strings.Repeat("=", 50)+"\n\n")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	loc := time.UTC
	require.NoError(t, Render(&buf, []model.Occurrence{teamMeeting()}, Options{Format: config.FormatJSON, Days: 7, Location: loc}))

	var doc eventsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Events, 1)
	assert.Equal(t, "Team Meeting", doc.Events[0].Summary)
	assert.Equal(t, "2025-07-03T10:00:00Z", doc.Events[0].Start)
	assert.Equal(t, 60, doc.Events[0].DurationMinutes)
	assert.Equal(t, metadataDTO{DaysAhead: 7, TotalEvents: 1, Timezone: "UTC"}, doc.Metadata)
}

func TestRenderJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, Options{Format: config.FormatJSON, Days: 2}))
	assert.Contains(t, buf.String(), `"events": []`)
	assert.Contains(t, buf.String(), `"total_events": 0`)
}
