package reports

import (
	"fmt"
	"strings"
)

// FormatDailyMarkdown formats a daily report as Markdown.
func FormatDailyMarkdown(r *DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Study Report: %s\n\n", r.Date.Format("Monday, January 2, 2006"))
	writeExams(&b, r.Exams)

	b.WriteString("## Study Time\n\n")
	fmt.Fprintf(&b, "**Total:** %s across %d session(s)\n\n", FormatMinutes(r.Study.TotalMinutes), r.Study.Sessions)
	writeSubjects(&b, r.Study.BySubject)

	writeTargets(&b, "Daily Targets", r.Targets)
	writeTests(&b, r.Tests)

	fmt.Fprintf(&b, "---\n_Generated %s_\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// FormatWeeklyMarkdown formats a weekly report as Markdown.
func FormatWeeklyMarkdown(r *WeeklyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly Study Report: %s - %s\n\n",
		r.StartDate.Format("Jan 2"), r.EndDate.Format("Jan 2, 2006"))
	writeExams(&b, r.Exams)

	b.WriteString("## Study Time\n\n")
	fmt.Fprintf(&b, "**Total:** %s across %d session(s)  \n", FormatMinutes(r.Study.TotalMinutes), r.Study.Sessions)
	fmt.Fprintf(&b, "**Daily average:** %s\n\n", FormatMinutes(r.Study.DailyAverageMinutes))
	writeSubjects(&b, r.Study.BySubject)

	if len(r.DailyBreakdown) > 0 {
		b.WriteString("| Day | Date | Study | Sessions | Tests |\n")
		b.WriteString("|-----|------|-------|----------|-------|\n")
		for _, d := range r.DailyBreakdown {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n",
				d.DayOfWeek, d.Date, FormatMinutes(d.Minutes), d.Sessions, d.Tests)
		}
		b.WriteString("\n")
	}

	writeTargets(&b, "Weekly Targets", r.Targets)
	writeTests(&b, r.Tests)

	fmt.Fprintf(&b, "---\n_Generated %s_\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	return b.String()
}

func writeExams(b *strings.Builder, exams []ExamCountdown) {
	for _, e := range exams {
		switch e.DaysLeft {
		case 0:
			fmt.Fprintf(b, "> **%s is today** (%s)\n", e.Exam, e.Date)
		case 1:
			fmt.Fprintf(b, "> **%s** in 1 day (%s)\n", e.Exam, e.Date)
		default:
			fmt.Fprintf(b, "> **%s** in %d days (%s)\n", e.Exam, e.DaysLeft, e.Date)
		}
	}
	if len(exams) > 0 {
		b.WriteString("\n")
	}
}

func writeSubjects(b *strings.Builder, subjects []SubjectTime) {
	if len(subjects) == 0 {
		b.WriteString("_No study time recorded._\n\n")
		return
	}
	for _, s := range subjects {
		fmt.Fprintf(b, "- **%s**: %s (%.0f%%)\n", s.Name, FormatMinutes(s.Minutes), s.Percentage)
	}
	b.WriteString("\n")
}

func writeTargets(b *strings.Builder, title string, targets []TargetProgress) {
	if len(targets) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, t := range targets {
		mark := " "
		if t.Met {
			mark = "x"
		}
		fmt.Fprintf(b, "- [%s] %s: %s / %s (%.0f%%)\n",
			mark, t.Name, FormatMinutes(t.ActualMinutes), FormatMinutes(t.TargetMinutes), t.Percent)
	}
	b.WriteString("\n")
}

func writeTests(b *strings.Builder, tests TestSummary) {
	if tests.Count == 0 {
		return
	}
	b.WriteString("## Tests\n\n")
	for _, t := range tests.Results {
		fmt.Fprintf(b, "- %s %s (%s): %g/%g (%.1f%%)\n", t.Date, t.Name, t.Type, t.Obtained, t.Total, t.Percent)
	}
	if tests.Count > 1 {
		fmt.Fprintf(b, "\n**Average:** %.1f%%\n", tests.AveragePercent)
	}
	b.WriteString("\n")
}

// FormatMinutes renders a minute count as "1h 05m" or "45m".
func FormatMinutes(m float64) string {
	total := int(m + 0.5)
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}
