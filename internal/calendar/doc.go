// Package calendar defines the calendar collaborator the scheduling tools
// work against, with two implementations: GoogleClient for the Google
// Calendar API and MemoryBackend for offline use and tests.
//
// All times crossing the Backend interface are absolute instants. Callers
// resolve relative expressions in their reference timezone first (see
// package timerange).
//
// Example usage:
//
//	mem, err := calendar.LoadSeedFile("testdata/week.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	backend := calendar.Instrument(mem, "memory", provider.Metrics())
//
//	events, err := backend.ListEvents(ctx, "primary", day.Start, day.End)
package calendar
