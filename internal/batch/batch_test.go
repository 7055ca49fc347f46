package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestProcessBatch(t *testing.T) {
	tests := []struct {
		name           string
		ids            []string
		fn             func(id string) (string, error)
		wantSuccessful int
		wantFailed     int
	}{
		{
			name: "all success",
			ids:  []string{"id1", "id2", "id3"},
			fn: func(id string) (string, error) {
				return "ok", nil
			},
			wantSuccessful: 3,
			wantFailed:     0,
		},
		{
			name: "all failure",
			ids:  []string{"id1", "id2"},
			fn: func(id string) (string, error) {
				return "", errors.New("boom")
			},
			wantSuccessful: 0,
			wantFailed:     2,
		},
		{
			name: "partial failure",
			ids:  []string{"id1", "id2", "id3"},
			fn: func(id string) (string, error) {
				if id == "id2" {
					return "", errors.New("not found")
				}
				return "deleted", nil
			},
			wantSuccessful: 2,
			wantFailed:     1,
		},
		{
			name: "empty batch",
			ids:  nil,
			fn: func(id string) (string, error) {
				t.Fatal("fn must not be called")
				return "", nil
			},
			wantSuccessful: 0,
			wantFailed:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := ProcessBatch(tt.ids, tt.fn)
			if len(results) != len(tt.ids) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.ids))
			}

			s := Summarize(results)
			if s.Successful != tt.wantSuccessful {
				t.Errorf("Successful = %d, want %d", s.Successful, tt.wantSuccessful)
			}
			if s.Failed != tt.wantFailed {
				t.Errorf("Failed = %d, want %d", s.Failed, tt.wantFailed)
			}
			if s.Total != len(tt.ids) {
				t.Errorf("Total = %d, want %d", s.Total, len(tt.ids))
			}

			for i, r := range results {
				if r.ID != tt.ids[i] {
					t.Errorf("results[%d].ID = %q, want %q", i, r.ID, tt.ids[i])
				}
			}
		})
	}
}

func TestSucceededAndErr(t *testing.T) {
	results := []Result{
		NewSuccessResult("a", "deleted"),
		NewErrorResult("b", errors.New("forbidden")),
		NewSuccessResult("c", "deleted"),
	}

	got := Succeeded(results)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Succeeded = %v, want [a c]", got)
	}

	failed := Failed(results)
	if len(failed) != 1 || failed[0].ID != "b" {
		t.Errorf("Failed = %v, want [b]", failed)
	}

	err := Err(results)
	if err == nil {
		t.Fatal("Err returned nil for a batch with failures")
	}
	if !strings.Contains(err.Error(), "b: forbidden") {
		t.Errorf("Err = %q, want it to mention b: forbidden", err)
	}

	if err := Err(results[:1]); err != nil {
		t.Errorf("Err on successful batch = %v, want nil", err)
	}
}

func TestProcessBatchContext_StopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var attempted []string
	results := ProcessBatchContext(ctx, []string{"a", "b", "c"}, func(_ context.Context, id string) (string, error) {
		attempted = append(attempted, id)
		if id == "a" {
			cancel()
		}
		return "deleted", nil
	})

	if len(attempted) != 1 {
		t.Fatalf("attempted %v, want only [a]", attempted)
	}
	if got := Succeeded(results); len(got) != 1 || got[0] != "a" {
		t.Errorf("Succeeded = %v, want [a]", got)
	}
	for _, r := range results[1:] {
		if r.Status != StatusError || !strings.Contains(r.Error, "not attempted") {
			t.Errorf("result %s = %+v, want not attempted error", r.ID, r)
		}
	}
}
