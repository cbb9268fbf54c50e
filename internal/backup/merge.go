package backup

import (
	"sort"
	"time"

	"studytrack/internal/storage"
)

// Merge combines an imported dataset with the existing one.
//
// Sessions and test scores are unioned by id with the existing record
// winning. Subjects are kept as a whole unless none exist yet. Plans are
// keyed by subject and the imported plan wins. Exam dates are replaced only
// when neither existing date is set. Sessions and scores come back newest
// first.
func Merge(imported, existing storage.Dataset) storage.Dataset {
	imported.Normalize()
	existing.Normalize()

	out := storage.Dataset{
		StudySessions: unionKeepExisting(existing.StudySessions, imported.StudySessions,
			func(s storage.Session) string { return s.ID }),
		TestScores: unionKeepExisting(existing.TestScores, imported.TestScores,
			func(s storage.TestScore) string { return s.ID }),
		Subjects:  existing.Subjects,
		ExamDates: existing.ExamDates,
	}
	if len(existing.Subjects) == 0 {
		out.Subjects = imported.Subjects
	}
	if existing.ExamDates.IsEmpty() {
		out.ExamDates = imported.ExamDates
	}

	plans := newOrdered[storage.StudyPlan]()
	for _, p := range existing.StudyPlans {
		plans.put(p.SubjectID, p)
	}
	for _, p := range imported.StudyPlans {
		plans.put(p.SubjectID, p)
	}
	out.StudyPlans = plans.values

	sort.SliceStable(out.StudySessions, func(i, j int) bool {
		return parseTime(out.StudySessions[i].StartTime).After(parseTime(out.StudySessions[j].StartTime))
	})
	sort.SliceStable(out.TestScores, func(i, j int) bool {
		return parseTime(out.TestScores[i].Date).After(parseTime(out.TestScores[j].Date))
	})

	out.Normalize()
	return out
}

func unionKeepExisting[T any](existing, imported []T, id func(T) string) []T {
	m := newOrdered[T]()
	for _, v := range existing {
		m.put(id(v), v)
	}
	for _, v := range imported {
		if !m.has(id(v)) {
			m.put(id(v), v)
		}
	}
	return m.values
}

// ordered is an insertion-ordered map. Re-putting a key replaces the value
// in place.
type ordered[T any] struct {
	index  map[string]int
	values []T
}

func newOrdered[T any]() *ordered[T] {
	return &ordered[T]{index: map[string]int{}, values: []T{}}
}

func (o *ordered[T]) has(k string) bool {
	_, ok := o.index[k]
	return ok
}

func (o *ordered[T]) put(k string, v T) {
	if i, ok := o.index[k]; ok {
		o.values[i] = v
		return
	}
	o.index[k] = len(o.values)
	o.values = append(o.values, v)
}

// parseTime reads a record timestamp. Unparseable values sort as the zero
// time.
func parseTime(s string) time.Time {
	t, _ := storage.ParseTime(s, time.UTC)
	return t
}
