// Package recovery rebuilds a study dataset from whatever is left in the
// key-value store when the normal read paths come back empty.
//
// Every key in the store is considered. Each bucket probes its known and
// legacy key names plus any key whose name merely looks like it belongs to
// the bucket, parses values defensively and keeps only records that pass a
// minimal shape check.
package recovery

import (
	"context"
	"fmt"
	"log/slog"

	"studytrack/internal/sanitize"
	"studytrack/internal/storage"
)

// Messages reported in Result.Errors when nothing could be rebuilt.
const (
	MsgNoData           = "No data found in local storage"
	MsgNothingRecovered = "No recoverable data found in local storage"
)

// Options configures an Engine.
type Options struct {
	Logger *slog.Logger
}

// Engine scans a KV for recoverable study data.
type Engine struct {
	kv  storage.KV
	log *slog.Logger
}

// Result is the outcome of a scan. Errors lists per-key read failures and
// the reason nothing was found, if applicable.
type Result struct {
	Success bool
	Data    storage.Dataset
	Errors  []string
}

// New creates an engine over kv.
func New(kv storage.KV, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{kv: kv, log: log.With("component", "recovery")}
}

// RecoverAll scans the store for the given user (empty for the guest). It
// never fails; problems are reported in Result.Errors.
func (e *Engine) RecoverAll(ctx context.Context, userID string) Result {
	res := Result{Errors: []string{}}
	res.Data.Normalize()

	present, err := e.kv.Keys(ctx)
	if err != nil {
		e.log.Warn("list storage keys", "err", err)
		present = nil
	}
	e.log.Debug("scanning store", "keys", len(present), "user", userOrGuest(userID))
	if len(present) == 0 {
		res.Errors = append(res.Errors, MsgNoData)
		return res
	}

	inStore := make(map[string]bool, len(present))
	for _, k := range present {
		inStore[k] = true
	}

	var (
		sessions []storage.Session
		scores   []storage.TestScore
		plans    []storage.StudyPlan
	)
	for _, b := range storage.Buckets {
		for _, key := range storage.CandidateKeys(b, userID, present) {
			if !inStore[key] {
				continue
			}
			raw, ok, err := e.kv.Get(ctx, key)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Failed to recover %s from %s: %v", b, key, err))
				continue
			}
			if !ok {
				continue
			}

			if b == storage.BucketExamDates {
				if dates, ok := examDatesFrom(sanitize.Parse(raw, nil)); ok {
					res.Data.ExamDates = dates
					e.log.Info("recovered exam dates", "key", key)
					break
				}
				continue
			}

			items := validItems(b, sanitize.Parse(raw, []any{}))
			if len(items) == 0 {
				continue
			}
			e.log.Info("recovered records", "bucket", b.String(), "key", key, "count", len(items))

			switch b {
			case storage.BucketSessions:
				sessions = append(sessions, decodeItems[storage.Session](&res, key, items)...)
			case storage.BucketScores:
				scores = append(scores, decodeItems[storage.TestScore](&res, key, items)...)
			case storage.BucketPlans:
				plans = append(plans, decodeItems[storage.StudyPlan](&res, key, items)...)
			case storage.BucketSubjects:
				res.Data.Subjects = decodeItems[storage.Subject](&res, key, items)
			}
			if b == storage.BucketSubjects && len(res.Data.Subjects) > 0 {
				break
			}
		}
	}

	res.Data.StudySessions = firstByKey(sessions, func(s storage.Session) string { return s.ID })
	res.Data.TestScores = firstByKey(scores, func(s storage.TestScore) string { return s.ID })
	res.Data.StudyPlans = firstByKey(plans, func(p storage.StudyPlan) string { return p.SubjectID })

	if len(res.Data.Subjects) > 0 && len(res.Data.StudySessions) > 0 {
		recomputeHours(res.Data.Subjects, res.Data.StudySessions)
	}
	res.Data.Normalize()

	res.Success = res.Data.TotalItems() > 0 || !res.Data.ExamDates.IsEmpty()
	if !res.Success && len(res.Errors) == 0 {
		res.Errors = append(res.Errors, MsgNothingRecovered)
	}

	e.log.Info("recovery complete",
		"sessions", len(res.Data.StudySessions),
		"scores", len(res.Data.TestScores),
		"subjects", len(res.Data.Subjects),
		"plans", len(res.Data.StudyPlans),
		"exam_dates", !res.Data.ExamDates.IsEmpty(),
		"errors", len(res.Errors))
	return res
}

// SaveRecovered writes a recovered dataset into repo's scope. Empty
// collections are skipped so they don't clobber data; exam dates are always
// written.
func SaveRecovered(ctx context.Context, repo *storage.Storage, ds storage.Dataset) error {
	ds.Normalize()
	writes := []struct {
		bucket storage.Bucket
		n      int
		value  any
	}{
		{storage.BucketSessions, len(ds.StudySessions), ds.StudySessions},
		{storage.BucketScores, len(ds.TestScores), ds.TestScores},
		{storage.BucketSubjects, len(ds.Subjects), ds.Subjects},
		{storage.BucketPlans, len(ds.StudyPlans), ds.StudyPlans},
	}
	for _, w := range writes {
		if w.n == 0 {
			continue
		}
		if err := repo.WriteBucket(ctx, w.bucket, w.value); err != nil {
			return err
		}
	}
	return repo.WriteBucket(ctx, storage.BucketExamDates, ds.ExamDates)
}

// validItems returns the array elements that pass the bucket's shape check.
func validItems(b storage.Bucket, parsed any) []any {
	list, ok := parsed.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	var out []any
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok || !shapeOK(b, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// decodeItems decodes records that passed the shape check and reports the
// ones that still could not be converted.
func decodeItems[T any](res *Result, key string, items []any) []T {
	out := storage.DecodeList[T](items)
	if n := len(items) - len(out); n > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("Skipped %d unreadable record(s) in %s", n, key))
	}
	return out
}

func shapeOK(b storage.Bucket, m map[string]any) bool {
	switch b {
	case storage.BucketSessions:
		_, numeric := m["duration"].(float64)
		return present(m, "id", "subjectId", "startTime") && numeric
	case storage.BucketScores:
		return present(m, "id", "testName")
	case storage.BucketSubjects:
		return present(m, "id", "name")
	case storage.BucketPlans:
		return present(m, "subjectId")
	}
	return false
}

// present reports whether every field is set to a non-empty value.
func present(m map[string]any, fields ...string) bool {
	for _, f := range fields {
		switch v := m[f].(type) {
		case nil:
			return false
		case string:
			if v == "" {
				return false
			}
		case bool:
			if !v {
				return false
			}
		case float64:
			if v == 0 {
				return false
			}
		}
	}
	return true
}

var (
	neetAliases   = []string{"NEET_PG", "neet_pg", "NEET"}
	iniCETAliases = []string{"INICET", "inicet"}
)

// examDatesFrom accepts an object exposing at least one non-empty date
// under any of the known aliases.
func examDatesFrom(parsed any) (storage.ExamDates, bool) {
	m, ok := parsed.(map[string]any)
	if !ok {
		return storage.ExamDates{}, false
	}
	dates := storage.ExamDates{
		NEETPG: firstString(m, neetAliases),
		INICET: firstString(m, iniCETAliases),
	}
	return dates, !dates.IsEmpty()
}

func firstString(m map[string]any, aliases []string) string {
	for _, a := range aliases {
		switch v := m[a].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return fmt.Sprint(v)
			}
		}
	}
	return ""
}

func firstByKey[T any](items []T, key func(T) string) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

// recomputeHours overwrites each subject's completed hours with the sum of
// its sessions.
func recomputeHours(subjects []storage.Subject, sessions []storage.Session) {
	minutes := make(map[string]float64, len(subjects))
	for _, s := range sessions {
		minutes[s.SubjectID] += s.Duration
	}
	for i := range subjects {
		subjects[i].CompletedHours = minutes[subjects[i].ID] / 60
	}
}

func userOrGuest(userID string) string {
	if userID == "" {
		return "guest"
	}
	return userID
}
