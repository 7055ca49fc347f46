package calendar

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document that populates a MemoryBackend:
//
//	calendars:
//	  - id: primary
//	    summary: Personal
//	    primary: true
//	    time_zone: Europe/London
//	    events:
//	      - summary: Lunch with Alice
//	        start: 2025-07-26T12:00:00+01:00
//	        end: 2025-07-26T13:00:00+01:00
//	      - summary: Bank holiday
//	        date: 2025-08-25
type Seed struct {
	Calendars []SeedCalendar `yaml:"calendars"`
}

// SeedCalendar is one calendar of a Seed.
type SeedCalendar struct {
	ID          string      `yaml:"id"`
	Summary     string      `yaml:"summary"`
	Description string      `yaml:"description"`
	TimeZone    string      `yaml:"time_zone"`
	Primary     bool        `yaml:"primary"`
	AccessRole  string      `yaml:"access_role"`
	Events      []SeedEvent `yaml:"events"`
}

// SeedEvent is one event of a SeedCalendar. Timed events set start and end
// as RFC3339; all-day events set date, and optionally end_date (exclusive).
type SeedEvent struct {
	ID          string `yaml:"id"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Location    string `yaml:"location"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Date        string `yaml:"date"`
	EndDate     string `yaml:"end_date"`
}

// LoadSeedFile reads a seed file from disk.
func LoadSeedFile(path string) (*MemoryBackend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	m, err := LoadSeed(f)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return m, nil
}

// LoadSeed decodes a seed document into a new MemoryBackend.
func LoadSeed(r io.Reader) (*MemoryBackend, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return seed.Backend()
}

// Backend builds a MemoryBackend holding the seed's calendars and events.
func (s Seed) Backend() (*MemoryBackend, error) {
	infos := make([]CalendarInfo, 0, len(s.Calendars))
	for i, c := range s.Calendars {
		if c.ID == "" {
			return nil, fmt.Errorf("calendar %d has no id", i)
		}
		infos = append(infos, CalendarInfo{
			ID:          c.ID,
			Summary:     c.Summary,
			Description: c.Description,
			TimeZone:    c.TimeZone,
			Primary:     c.Primary,
			AccessRole:  c.AccessRole,
		})
	}

	m := NewMemoryBackend(infos...)
	for _, c := range s.Calendars {
		for j, se := range c.Events {
			ev, err := se.event(c.TimeZone)
			if err != nil {
				return nil, fmt.Errorf("calendar %s event %d: %w", c.ID, j, err)
			}
			if _, err := m.Put(c.ID, ev); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (se SeedEvent) event(tz string) (Event, error) {
	ev := Event{
		ID:          se.ID,
		Summary:     se.Summary,
		Description: se.Description,
		Location:    se.Location,
	}

	if se.Date != "" {
		start, err := time.Parse(DateLayout, se.Date)
		if err != nil {
			return Event{}, fmt.Errorf("invalid date %q: %w", se.Date, err)
		}
		end := start.AddDate(0, 0, 1)
		if se.EndDate != "" {
			if end, err = time.Parse(DateLayout, se.EndDate); err != nil {
				return Event{}, fmt.Errorf("invalid end_date %q: %w", se.EndDate, err)
			}
		}
		ev.Start = EventTime{Date: start.Format(DateLayout), TimeZone: tz}
		ev.End = EventTime{Date: end.Format(DateLayout), TimeZone: tz}
		return ev, nil
	}

	start, err := time.Parse(time.RFC3339, se.Start)
	if err != nil {
		return Event{}, fmt.Errorf("invalid start %q: %w", se.Start, err)
	}
	end, err := time.Parse(time.RFC3339, se.End)
	if err != nil {
		return Event{}, fmt.Errorf("invalid end %q: %w", se.End, err)
	}
	if !end.After(start) {
		return Event{}, fmt.Errorf("%w: end must be after start", ErrInvalidEvent)
	}
	ev.Start = EventTime{DateTime: start, TimeZone: tz}
	ev.End = EventTime{DateTime: end, TimeZone: tz}
	return ev, nil
}
