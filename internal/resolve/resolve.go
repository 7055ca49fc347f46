package resolve

import (
	"sort"
	"strings"

	"github.com/teemow/scheduler/internal/calendar"
)

// DisplayLimit is the number of matches shown to a user at once.
const DisplayLimit = 5

// Tier is the strength of a match. Higher is better.
type Tier int

const (
	// TierNone means the event does not match.
	TierNone Tier = iota
	// TierLongWord matches a word longer than three characters in the title
	// or description.
	TierLongWord
	// TierWord matches a word longer than two characters in the title,
	// description or location.
	TierWord
	// TierExact matches the full description in the title or description.
	TierExact
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierWord:
		return "word"
	case TierLongWord:
		return "long-word"
	default:
		return "none"
	}
}

// Match is one candidate event and the tier it qualified for.
type Match struct {
	Event calendar.Event
	Tier  Tier
}

// Rank returns the events matching description, best first: by tier, then
// by start time, latest first. Events that do not match are dropped. An
// empty description matches nothing.
func Rank(description string, events []calendar.Event) []Match {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" || len(events) == 0 {
		return nil
	}
	words := strings.Fields(desc)

	var matches []Match
	for _, ev := range events {
		if tier := Score(desc, words, ev); tier > TierNone {
			matches = append(matches, Match{Event: ev, Tier: tier})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Tier != matches[j].Tier {
			return matches[i].Tier > matches[j].Tier
		}
		return matches[i].Event.Start.Time().After(matches[j].Event.Start.Time())
	})
	return matches
}

// Events returns the events of matches in order.
func Events(matches []Match) []calendar.Event {
	out := make([]calendar.Event, len(matches))
	for i, m := range matches {
		out[i] = m.Event
	}
	return out
}

// Top returns at most DisplayLimit matches.
func Top(matches []Match) []Match {
	if len(matches) > DisplayLimit {
		return matches[:DisplayLimit]
	}
	return matches
}

// Score returns the best tier ev qualifies for. desc must already be
// lowercased and words must be its whitespace-separated fields.
func Score(desc string, words []string, ev calendar.Event) Tier {
	title := strings.ToLower(ev.Summary)
	body := strings.ToLower(ev.Description)
	location := strings.ToLower(ev.Location)

	if strings.Contains(title, desc) || strings.Contains(body, desc) {
		return TierExact
	}
	for _, w := range words {
		if len(w) > 2 && (strings.Contains(title, w) || strings.Contains(body, w) || strings.Contains(location, w)) {
			return TierWord
		}
	}
	for _, w := range words {
		if len(w) > 3 && (strings.Contains(title, w) || strings.Contains(body, w)) {
			return TierLongWord
		}
	}
	return TierNone
}

// Filter keeps the events whose title or description contains keyword,
// ignoring case. Order is preserved. An empty keyword keeps everything.
func Filter(keyword string, events []calendar.Event) []calendar.Event {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return events
	}
	var out []calendar.Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Summary), kw) || strings.Contains(strings.ToLower(ev.Description), kw) {
			out = append(out, ev)
		}
	}
	return out
}
