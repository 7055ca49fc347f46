// Package memory holds the short-term conversation state: Turn values and a
// fixed-capacity Window that evicts the oldest turns first.
package memory
