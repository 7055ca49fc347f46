package calendar_tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/resolve"
	"github.com/teemow/scheduler/internal/timerange"
)

const noTitle = "(No Title)"

func title(ev calendar.Event) string {
	if strings.TrimSpace(ev.Summary) == "" {
		return noTitle
	}
	return ev.Summary
}

// when renders an event boundary. All-day boundaries show the date only.
func when(ref timerange.Reference, t calendar.EventTime) string {
	if t.AllDay() {
		return ref.DisplayDate(t.Time())
	}
	return ref.Display(t.DateTime)
}

func span(ref timerange.Reference, ev calendar.Event) string {
	if ev.Start.AllDay() {
		last := ev.End.Time().AddDate(0, 0, -1)
		if !last.After(ev.Start.Time()) {
			return ref.DisplayDate(ev.Start.Time()) + " (all day)"
		}
		return ref.DisplayDate(ev.Start.Time()) + " to " + ref.DisplayDate(last) + " (all day)"
	}
	return when(ref, ev.Start) + " to " + when(ref, ev.End)
}

func formatEventList(ref timerange.Reference, calendarID string, r timerange.Range, events []calendar.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Events for %s from %s to %s:\n", calendarID, ref.Display(r.Start), ref.Display(r.End))
	for _, ev := range events {
		fmt.Fprintf(&b, "- **%s**\n", title(ev))
		fmt.Fprintf(&b, "  Date: %s\n", span(ref, ev))
		if ev.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", ev.Description)
		}
		if ev.Location != "" {
			fmt.Fprintf(&b, "  Location: %s\n", ev.Location)
		}
		fmt.Fprintf(&b, "  Event ID: %s\n\n", ev.ID)
	}
	return b.String()
}

func formatKeywordMatches(ref timerange.Reference, keyword string, events []calendar.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Events matching '%s':\n", keyword)
	for _, ev := range events {
		fmt.Fprintf(&b, "- **%s**\n  Date: %s\n  Event ID: %s\n\n", title(ev), span(ref, ev), ev.ID)
	}
	return b.String()
}

func formatMatches(ref timerange.Reference, description string, matches []resolve.Match) string {
	var b strings.Builder
	top := resolve.Top(matches)

	switch {
	case len(matches) == 1:
		fmt.Fprintf(&b, "Found 1 event matching \"%s\":\n", description)
	case len(matches) > len(top):
		fmt.Fprintf(&b, "Found %d events matching \"%s\", showing the %d most likely:\n", len(matches), description, len(top))
	default:
		fmt.Fprintf(&b, "Found %d events matching \"%s\":\n", len(matches), description)
	}

	for i, m := range top {
		ev := m.Event
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, title(ev))
		fmt.Fprintf(&b, "   Date: %s\n", span(ref, ev))
		if ev.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", ev.Location)
		}
		fmt.Fprintf(&b, "   Calendar: %s\n", ev.CalendarID)
		fmt.Fprintf(&b, "   Event ID: %s\n", ev.ID)
		fmt.Fprintf(&b, "   Match: %s\n", m.Tier)
	}

	if len(matches) > 1 {
		b.WriteString("\nSeveral events match. Ask the user which one they mean before changing anything.\n")
	}
	return b.String()
}

func formatDetails(ref timerange.Reference, ev calendar.Event) string {
	var b strings.Builder
	b.WriteString("**Event Details**\n")
	fmt.Fprintf(&b, "- **Title:** %s\n", title(ev))
	fmt.Fprintf(&b, "- **Date:** %s\n", span(ref, ev))
	fmt.Fprintf(&b, "- **Description:** %s\n", ev.Description)
	fmt.Fprintf(&b, "- **Location:** %s\n", ev.Location)
	fmt.Fprintf(&b, "- **Calendar:** %s\n", ev.CalendarID)
	fmt.Fprintf(&b, "- **Event ID:** %s\n", ev.ID)
	return b.String()
}

func formatCreated(ref timerange.Reference, calendarID string, ev calendar.Event) string {
	var b strings.Builder
	b.WriteString("**Event Created!**\n\n")
	fmt.Fprintf(&b, "- **Title:** %s\n", title(ev))
	fmt.Fprintf(&b, "- **Date:** %s (%s)\n", span(ref, ev), ref.Location)
	fmt.Fprintf(&b, "- **Description:** %s\n", ev.Description)
	fmt.Fprintf(&b, "- **Location:** %s\n", ev.Location)
	fmt.Fprintf(&b, "- **Calendar:** %s\n", calendarID)
	fmt.Fprintf(&b, "- **Event ID:** %s\n", ev.ID)
	return b.String()
}

func formatDeleted(ref timerange.Reference, calendarID string, r timerange.Range, ids []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deleted %d event(s) from %s between %s and %s:\n",
		len(ids), calendarID, ref.Display(r.Start), ref.Display(r.End))
	for _, id := range ids {
		fmt.Fprintf(&b, "- Event ID: %s\n", id)
	}
	return b.String()
}

// formatDuration renders a total as "H hours M minutes".
func formatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%d hours %d minutes", minutes/60, minutes%60)
}

func formatCalendars(calendars []calendar.CalendarInfo, showIDs bool) string {
	var b strings.Builder
	b.WriteString("Your calendars:\n")
	for _, c := range calendars {
		name := c.Summary
		if name == "" {
			name = "(No Name)"
		}
		b.WriteString("- " + name)
		if c.Primary {
			b.WriteString(" [primary]")
		}
		if showIDs {
			fmt.Fprintf(&b, " (ID: %s)", c.ID)
		}
		b.WriteString("\n")
	}
	return b.String()
}
