// Package timerange turns date expressions into whole-day or explicit ranges
// anchored to a single reference timezone.
//
// Every call takes a Reference (the current instant plus the timezone), so
// tests can pin "now" without touching global state:
//
//	ref := timerange.NewReference(time.Now(), london)
//	r := timerange.Resolve(ref, "tomorrow")
//	fmt.Println(r.StartString(), r.EndString())
//
// Recognized terms are today, tomorrow, yesterday, next week and last week,
// plus YYYY-MM-DD dates. Other strings go through dateparse. Input that cannot
// be understood resolves to today and sets Range.Fallback instead of failing.
package timerange
