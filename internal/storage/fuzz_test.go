package storage

import (
	"context"
	"strings"
	"testing"
)

// FuzzLoadDataset stores arbitrary bytes in every bucket and checks that
// loading never panics and never yields nil collections.
func FuzzLoadDataset(f *testing.F) {
	f.Add("")
	f.Add("[object Object]")
	f.Add(`[{"id":"a","subjectId":"x","startTime":"t","duration":5}]`)
	f.Add(`{"NEET_PG":"2025-01-01"}`)
	f.Add(`[1, "two", {"id": 3}]`)
	f.Add("\x00\x01\x02")
	f.Add(strings.Repeat("[", 64))

	f.Fuzz(func(t *testing.T, raw string) {
		store, kv := createTestStorage(t, Scope{UserID: "fuzz"})
		ctx := context.Background()

		for _, b := range Buckets {
			_ = kv.Set(ctx, Key(b, store.Scope()), raw)
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("LoadDataset panicked with %q: %v", raw, r)
			}
		}()

		ds, err := store.LoadDataset(ctx)
		if err != nil {
			t.Fatalf("LoadDataset() error = %v", err)
		}
		if ds.StudySessions == nil || ds.TestScores == nil || ds.Subjects == nil || ds.StudyPlans == nil {
			t.Errorf("nil collection for input %q", raw)
		}
	})
}
