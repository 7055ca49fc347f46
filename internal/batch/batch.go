package batch

import (
	"context"
	"errors"
	"fmt"
)

// Result status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary counts the outcomes of a batch
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ProcessBatch executes a function on each item and collects results
// fn should return (result string, error) for each item
func ProcessBatch(ids []string, fn func(id string) (string, error)) []Result {
	return ProcessBatchContext(context.Background(), ids, func(_ context.Context, id string) (string, error) {
		return fn(id)
	})
}

// ProcessBatchContext is like ProcessBatch but stops starting new items once
// ctx is done. Items that were never attempted are reported with ctx's error,
// so callers can tell exactly which IDs were processed before a deadline.
func ProcessBatchContext(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, fmt.Errorf("not attempted: %w", err)))
			continue
		}

		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
		} else {
			results = append(results, NewSuccessResult(id, res))
		}
	}

	return results
}

// Succeeded returns the IDs of the successful items, in batch order
func Succeeded(results []Result) []string {
	var ids []string
	for _, r := range results {
		if r.Status == StatusSuccess {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Failed returns the failed items, in batch order
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Status != StatusSuccess {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summarize counts successes and failures
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// Err joins the errors of all failed items, or returns nil
func Err(results []Result) error {
	var errs []error
	for _, r := range Failed(results) {
		errs = append(errs, fmt.Errorf("%s: %s", r.ID, r.Error))
	}
	return errors.Join(errs...)
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
