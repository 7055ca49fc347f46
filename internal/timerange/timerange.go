package timerange

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultTimeZone is the reference timezone used when none is configured.
const DefaultTimeZone = "Europe/London"

// Layout is the RFC3339 layout used for every emitted instant. The offset is
// always numeric so that UTC renders as +00:00 rather than Z.
const Layout = "2006-01-02T15:04:05.999999-07:00"

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// relativeDays maps the recognized relative vocabulary to a day offset.
var relativeDays = map[string]int{
	"today":     0,
	"tomorrow":  1,
	"yesterday": -1,
	"next week": 7,
	"last week": -7,
}

// Reference anchors resolution to an instant and a timezone. It is passed
// into every call instead of being captured once at startup.
type Reference struct {
	Now      time.Time
	Location *time.Location
}

// NewReference returns a Reference for now in loc. A nil loc means UTC.
func NewReference(now time.Time, loc *time.Location) Reference {
	if loc == nil {
		loc = time.UTC
	}
	return Reference{Now: now.In(loc), Location: loc}
}

// LoadReference resolves the named timezone and anchors it at now.
func LoadReference(now time.Time, tz string) (Reference, error) {
	if tz == "" {
		tz = DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Reference{}, err
	}
	return NewReference(now, loc), nil
}

func (r Reference) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// StartOfDay returns midnight of the day containing t in the reference timezone.
func (r Reference) StartOfDay(t time.Time) time.Time {
	t = t.In(r.location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.location())
}

// EndOfDay returns 23:59:59.999999 of the day containing t.
func (r Reference) EndOfDay(t time.Time) time.Time {
	start := r.StartOfDay(t)
	return start.AddDate(0, 0, 1).Add(-time.Microsecond)
}

// Day returns the whole-day range for the day containing t.
func (r Reference) Day(t time.Time) Range {
	return Range{Start: r.StartOfDay(t), End: r.EndOfDay(t)}
}

// Today returns the whole-day range for the reference date.
func (r Reference) Today() Range {
	return r.Day(r.Now)
}

// Range is an interval in the reference timezone. End is inclusive to the
// microsecond and is used as an upper query bound.
type Range struct {
	Start time.Time
	End   time.Time

	// Fallback is set when the input could not be understood and the range
	// degraded to today.
	Fallback bool
}

// StartString returns Start formatted with Layout.
func (r Range) StartString() string {
	return r.Start.Format(Layout)
}

// EndString returns End formatted with Layout.
func (r Range) EndString() string {
	return r.End.Format(Layout)
}

// Duration returns End - Start.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Contains reports whether t falls inside the range, both bounds inclusive.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Resolve converts a single date expression into a range. It never fails:
// anything it cannot understand resolves to today with Fallback set.
func Resolve(ref Reference, expr string) Range {
	return Between(ref, expr, "")
}

// Between resolves the two-argument form. An empty end defaults to the end
// of start's day. A parse failure on either side yields today.
func Between(ref Reference, start, end string) Range {
	s, ok := resolveStart(ref, start)
	if !ok {
		return fallback(ref)
	}

	if strings.TrimSpace(end) == "" {
		return Range{Start: s, End: ref.EndOfDay(s)}
	}

	e, ok := resolveEnd(ref, end)
	if !ok {
		return fallback(ref)
	}
	if !e.After(s) {
		e = ref.EndOfDay(s)
	}
	return Range{Start: s, End: e}
}

// Instant parses a single point in time, for arguments such as a new event
// start. Relative terms resolve to the start of their day.
func Instant(ref Reference, expr string) (time.Time, bool) {
	return resolveStart(ref, expr)
}

func fallback(ref Reference) Range {
	r := ref.Today()
	r.Fallback = true
	return r
}

func resolveStart(ref Reference, expr string) (time.Time, bool) {
	term := normalize(expr)
	if term == "" {
		return time.Time{}, false
	}
	if days, ok := relativeDays[term]; ok {
		return ref.StartOfDay(ref.Now.AddDate(0, 0, days)), true
	}
	if isoDate.MatchString(term) {
		d, err := time.ParseInLocation("2006-01-02", term, ref.location())
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	}
	return parseFree(ref, expr)
}

func resolveEnd(ref Reference, expr string) (time.Time, bool) {
	term := normalize(expr)
	if days, ok := relativeDays[term]; ok {
		return ref.EndOfDay(ref.Now.AddDate(0, 0, days)), true
	}
	if isoDate.MatchString(term) {
		d, err := time.ParseInLocation("2006-01-02", term, ref.location())
		if err != nil {
			return time.Time{}, false
		}
		return ref.EndOfDay(d), true
	}
	return parseFree(ref, expr)
}

// parseFree handles anything outside the fixed vocabulary. Naive values are
// read in the reference timezone; values carrying an offset are converted.
func parseFree(ref Reference, expr string) (time.Time, bool) {
	t, err := dateparse.ParseIn(strings.TrimSpace(expr), ref.location())
	if err != nil {
		return time.Time{}, false
	}
	return t.In(ref.location()), true
}

func normalize(expr string) string {
	return strings.Join(strings.Fields(strings.ToLower(expr)), " ")
}
