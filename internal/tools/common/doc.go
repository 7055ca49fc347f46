// Package common provides shared utilities for the scheduler's tool
// implementations: the error and timeout conventions every tool result
// follows, argument helpers, and the instrumentation wrapper.
package common
