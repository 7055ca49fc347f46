package timerange

import (
	"time"
)

// DisplayLayout renders instants for people, e.g. "26 July 2025, 02:00 PM".
const DisplayLayout = "02 January 2006, 03:04 PM"

// DateDisplayLayout renders a calendar date, e.g. "26 July 2025".
const DateDisplayLayout = "02 January 2006"

// Display formats t in the reference timezone. The zero time renders empty.
func (r Reference) Display(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(r.location()).Format(DisplayLayout)
}

// DisplayDate formats the calendar date of t in the reference timezone.
func (r Reference) DisplayDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(r.location()).Format(DateDisplayLayout)
}

// ParseDisplay reads a value produced by Display back into an instant.
func (r Reference) ParseDisplay(s string) (time.Time, error) {
	return time.ParseInLocation(DisplayLayout, s, r.location())
}

// Facts describes the reference date for the system directive.
type Facts struct {
	TimeZone     string
	Current      string
	Today        string
	TodayDay     string
	Tomorrow     string
	TomorrowDay  string
	Yesterday    string
	YesterdayDay string
}

// Facts returns the current date facts relative to the reference.
func (r Reference) Facts() Facts {
	now := r.Now.In(r.location())
	tomorrow := now.AddDate(0, 0, 1)
	yesterday := now.AddDate(0, 0, -1)
	return Facts{
		TimeZone:     r.location().String(),
		Current:      now.Format(DisplayLayout),
		Today:        now.Format("2006-01-02"),
		TodayDay:     now.Weekday().String(),
		Tomorrow:     tomorrow.Format("2006-01-02"),
		TomorrowDay:  tomorrow.Weekday().String(),
		Yesterday:    yesterday.Format("2006-01-02"),
		YesterdayDay: yesterday.Weekday().String(),
	}
}
