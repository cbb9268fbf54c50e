package reports

import (
	"context"
	"sort"
	"time"

	"studytrack/internal/storage"
)

const dateLayout = "2006-01-02"

// unassigned names study time with no resolvable subject.
const unassigned = "Unassigned"

// Generator creates reports from storage data.
type Generator struct {
	store *storage.Storage

	// Now is the clock used for GeneratedAt and exam countdowns.
	Now func() time.Time
}

// NewGenerator creates a new report generator.
func NewGenerator(store *storage.Storage) *Generator {
	return &Generator{store: store, Now: time.Now}
}

// GenerateDaily generates a report for a specific date.
func (g *Generator) GenerateDaily(ctx context.Context, date time.Time) (*DailyReport, error) {
	ds, err := g.store.LoadDataset(ctx)
	if err != nil {
		return nil, err
	}

	date = startOfDay(date)
	end := date.AddDate(0, 0, 1)
	now := g.Now()

	study := studySummary(ds, date, end)
	return &DailyReport{
		Date:        date,
		Study:       study,
		Tests:       testSummary(ds, date, end),
		Targets:     targetProgress(ds, study.BySubject, func(p storage.StudyPlan) float64 { return p.DailyTarget }),
		Exams:       examCountdowns(ds.ExamDates, now),
		GeneratedAt: now,
	}, nil
}

// GenerateWeekly generates a report for a week starting on the given date.
func (g *Generator) GenerateWeekly(ctx context.Context, startDate time.Time) (*WeeklyReport, error) {
	ds, err := g.store.LoadDataset(ctx)
	if err != nil {
		return nil, err
	}

	// Align to start of week (Sunday)
	startDate = startOfWeekSunday(startDate)
	endDate := startDate.AddDate(0, 0, 7)
	now := g.Now()

	study := studySummary(ds, startDate, endDate)
	return &WeeklyReport{
		StartDate: startDate,
		EndDate:   endDate.Add(-time.Nanosecond), // End of last day
		Study: WeeklyStudy{
			TotalMinutes:        study.TotalMinutes,
			DailyAverageMinutes: study.TotalMinutes / 7,
			Sessions:            study.Sessions,
			BySubject:           study.BySubject,
		},
		Tests:          testSummary(ds, startDate, endDate),
		Targets:        targetProgress(ds, study.BySubject, func(p storage.StudyPlan) float64 { return p.WeeklyTarget }),
		DailyBreakdown: dailyBreakdown(ds, startDate, endDate),
		Exams:          examCountdowns(ds.ExamDates, now),
		GeneratedAt:    now,
	}, nil
}

// studySummary returns study time statistics for a date range.
func studySummary(ds storage.Dataset, start, end time.Time) StudySummary {
	names := subjectNames(ds.Subjects)
	minutes := make(map[string]float64)
	labels := make(map[string]string)
	var total float64
	sessions := 0

	for _, s := range ds.StudySessions {
		m, started := sessionMinutes(s, start, end)
		if started {
			sessions++
		}
		if m <= 0 {
			continue
		}
		total += m
		minutes[s.SubjectID] += m
		if _, ok := labels[s.SubjectID]; !ok {
			labels[s.SubjectID] = subjectName(names, s)
		}
	}

	// Convert to sorted slice with percentages
	bySubject := make([]SubjectTime, 0, len(minutes))
	for id, m := range minutes {
		pct := 0.0
		if total > 0 {
			pct = m / total * 100
		}
		bySubject = append(bySubject, SubjectTime{
			SubjectID:  id,
			Name:       labels[id],
			Minutes:    m,
			Percentage: pct,
		})
	}
	sort.Slice(bySubject, func(i, j int) bool {
		if bySubject[i].Minutes != bySubject[j].Minutes {
			return bySubject[i].Minutes > bySubject[j].Minutes
		}
		return bySubject[i].Name < bySubject[j].Name
	})

	return StudySummary{
		TotalMinutes: total,
		Sessions:     sessions,
		BySubject:    bySubject,
	}
}

// testSummary returns the tests dated within a range, oldest first.
func testSummary(ds storage.Dataset, start, end time.Time) TestSummary {
	results := []TestResult{}
	var pctSum float64

	for _, t := range ds.TestScores {
		at, ok := storage.ParseTime(t.Date, start.Location())
		if !ok || at.Before(start) || !at.Before(end) {
			continue
		}
		pct := 0.0
		if t.TotalMarks > 0 {
			pct = t.ObtainedMarks / t.TotalMarks * 100
		}
		pctSum += pct
		results = append(results, TestResult{
			Name:     t.TestName,
			Type:     string(t.TestType),
			Date:     at.In(start.Location()).Format(dateLayout),
			Obtained: t.ObtainedMarks,
			Total:    t.TotalMarks,
			Percent:  pct,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Date < results[j].Date
	})

	avg := 0.0
	if len(results) > 0 {
		avg = pctSum / float64(len(results))
	}
	return TestSummary{
		Results:        results,
		Count:          len(results),
		AveragePercent: avg,
	}
}

// targetProgress compares each plan's target, as picked by target, with the
// minutes studied. Plans with no target for the period are skipped.
func targetProgress(ds storage.Dataset, studied []SubjectTime, target func(storage.StudyPlan) float64) []TargetProgress {
	names := subjectNames(ds.Subjects)
	actual := make(map[string]float64, len(studied))
	for _, st := range studied {
		actual[st.SubjectID] = st.Minutes
	}

	progress := []TargetProgress{}
	for _, p := range ds.StudyPlans {
		want := target(p)
		if want <= 0 {
			continue
		}
		name := names[p.SubjectID]
		if name == "" {
			name = p.SubjectID
		}
		got := actual[p.SubjectID]
		progress = append(progress, TargetProgress{
			SubjectID:     p.SubjectID,
			Name:          name,
			Priority:      string(p.Priority),
			TargetMinutes: want,
			ActualMinutes: got,
			Percent:       got / want * 100,
			Met:           got >= want,
		})
	}
	sort.SliceStable(progress, func(i, j int) bool {
		return priorityRank(progress[i].Priority) < priorityRank(progress[j].Priority)
	})
	return progress
}

// dailyBreakdown returns a summary for each day in the period.
func dailyBreakdown(ds storage.Dataset, start, end time.Time) []DailySummary {
	days := daysBetween(start, end)
	breakdown := make([]DailySummary, 0, days)

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		dayEnd := day.AddDate(0, 0, 1)

		study := studySummary(ds, day, dayEnd)
		tests := testSummary(ds, day, dayEnd)
		breakdown = append(breakdown, DailySummary{
			Date:      day.Format(dateLayout),
			DayOfWeek: day.Format("Mon"),
			Minutes:   study.TotalMinutes,
			Sessions:  study.Sessions,
			Tests:     tests.Count,
		})
	}

	return breakdown
}

// examCountdowns lists the exams that are today or later.
func examCountdowns(dates storage.ExamDates, now time.Time) []ExamCountdown {
	today := startOfDay(now)
	exams := []ExamCountdown{}
	for _, e := range []struct{ name, date string }{
		{"NEET-PG", dates.NEETPG},
		{"INI-CET", dates.INICET},
	} {
		if e.date == "" {
			continue
		}
		at, ok := storage.ParseTime(e.date, now.Location())
		if !ok {
			continue
		}
		day := startOfDay(at.In(now.Location()))
		if day.Before(today) {
			continue
		}
		exams = append(exams, ExamCountdown{
			Exam:     e.name,
			Date:     day.Format(dateLayout),
			DaysLeft: daysBetween(today, day),
		})
	}
	sort.SliceStable(exams, func(i, j int) bool {
		return exams[i].DaysLeft < exams[j].DaysLeft
	})
	return exams
}

// sessionMinutes returns how many of a session's minutes fall inside
// [start, end) and whether the session began in that range. Sessions with a
// usable start and end are split proportionally; anything else counts whole
// on its recorded day.
func sessionMinutes(s storage.Session, start, end time.Time) (float64, bool) {
	loc := start.Location()
	from, okFrom := storage.ParseTime(s.StartTime, loc)
	to, okTo := storage.ParseTime(s.EndTime, loc)
	if okFrom && okTo && to.After(from) {
		overlap := overlapDuration(from, to, start, end)
		began := !from.Before(start) && from.Before(end)
		return s.Duration * float64(overlap) / float64(to.Sub(from)), began
	}

	day, ok := storage.ParseTime(s.Date, loc)
	if !ok {
		day, ok = from, okFrom
	}
	if !ok {
		return 0, false
	}
	day = startOfDay(day.In(loc))
	if day.Before(start) || !day.Before(end) {
		return 0, false
	}
	return s.Duration, true
}

func subjectNames(subjects []storage.Subject) map[string]string {
	names := make(map[string]string, len(subjects))
	for _, s := range subjects {
		names[s.ID] = s.Name
	}
	return names
}

// subjectName prefers the current subject name, then the name recorded on
// the session.
func subjectName(names map[string]string, s storage.Session) string {
	if name := names[s.SubjectID]; name != "" {
		return name
	}
	if s.SubjectName != "" {
		return s.SubjectName
	}
	return unassigned
}

func priorityRank(p string) int {
	switch storage.Priority(p) {
	case storage.PriorityHigh:
		return 0
	case storage.PriorityMedium:
		return 1
	case storage.PriorityLow:
		return 2
	default:
		return 3
	}
}

// Helper functions

// startOfDay returns the start of the day (midnight).
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeekSunday returns the start of the week (Sunday).
func startOfWeekSunday(t time.Time) time.Time {
	t = startOfDay(t)
	weekday := int(t.Weekday())
	return t.AddDate(0, 0, -weekday)
}

func daysBetween(start, end time.Time) int {
	if end.Before(start) || end.Equal(start) {
		return 0
	}
	count := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		count++
		if count > 3660 {
			break
		}
	}
	return count
}

// overlapDuration calculates how much of [entryStart, entryEnd] overlaps with [rangeStart, rangeEnd].
func overlapDuration(entryStart, entryEnd, rangeStart, rangeEnd time.Time) time.Duration {
	overlapStart := entryStart
	if rangeStart.After(overlapStart) {
		overlapStart = rangeStart
	}

	overlapEnd := entryEnd
	if rangeEnd.Before(overlapEnd) {
		overlapEnd = rangeEnd
	}

	if !overlapEnd.After(overlapStart) {
		return 0
	}

	return overlapEnd.Sub(overlapStart)
}
