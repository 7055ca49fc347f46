// Package resolve turns a vague event description into ranked candidate
// events.
//
// Matching is tiered. A description found whole in an event's title or
// description ranks highest (TierExact). Otherwise any word longer than two
// characters found in the title, description or location qualifies
// (TierWord), and any word longer than three characters found in the title
// or description qualifies (TierLongWord). Each event keeps its best tier;
// within a tier the most recent event comes first.
//
//	matches := resolve.Rank("lunch with alice", events)
//	if len(matches) > 1 {
//		// ask the user to choose
//	}
package resolve
