// Package batch provides helpers for operations applied to many items, such
// as deleting every event in a time range.
//
// This package includes helpers for:
//   - Processing items one by one and collecting per-item results
//   - Stopping cleanly when a deadline passes, marking untouched items
//   - Reporting partial failures without losing the successful IDs
package batch
