// Package reports provides daily and weekly study report generation.
// Reports aggregate study sessions, test scores, study plan targets and exam
// countdowns.
package reports

import (
	"time"
)

// DailyReport contains aggregated data for a single day.
type DailyReport struct {
	Date        time.Time        `json:"date"`
	Study       StudySummary     `json:"study"`
	Tests       TestSummary      `json:"tests"`
	Targets     []TargetProgress `json:"targets"`
	Exams       []ExamCountdown  `json:"exams"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// WeeklyReport contains aggregated data for a week.
type WeeklyReport struct {
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	Study          WeeklyStudy      `json:"study"`
	Tests          TestSummary      `json:"tests"`
	Targets        []TargetProgress `json:"targets"`
	DailyBreakdown []DailySummary   `json:"daily_breakdown"`
	Exams          []ExamCountdown  `json:"exams"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// StudySummary contains study time statistics for a period.
type StudySummary struct {
	TotalMinutes float64       `json:"total_minutes"`
	Sessions     int           `json:"sessions"`
	BySubject    []SubjectTime `json:"by_subject"`
}

// WeeklyStudy contains study time statistics for a week.
type WeeklyStudy struct {
	TotalMinutes        float64       `json:"total_minutes"`
	DailyAverageMinutes float64       `json:"daily_average_minutes"`
	Sessions            int           `json:"sessions"`
	BySubject           []SubjectTime `json:"by_subject"`
}

// SubjectTime represents time studied for a specific subject.
type SubjectTime struct {
	SubjectID  string  `json:"subject_id"`
	Name       string  `json:"name"`
	Minutes    float64 `json:"minutes"`
	Percentage float64 `json:"percentage"`
}

// TestSummary contains test results for a period.
type TestSummary struct {
	Results        []TestResult `json:"results"`
	Count          int          `json:"count"`
	AveragePercent float64      `json:"average_percent"`
}

// TestResult is one test taken in the period.
type TestResult struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Date     string  `json:"date"`
	Obtained float64 `json:"obtained"`
	Total    float64 `json:"total"`
	Percent  float64 `json:"percent"`
}

// TargetProgress compares a study plan target with the time actually studied.
type TargetProgress struct {
	SubjectID     string  `json:"subject_id"`
	Name          string  `json:"name"`
	Priority      string  `json:"priority"`
	TargetMinutes float64 `json:"target_minutes"`
	ActualMinutes float64 `json:"actual_minutes"`
	Percent       float64 `json:"percent"`
	Met           bool    `json:"met"`
}

// ExamCountdown is an upcoming exam and the days remaining until it.
type ExamCountdown struct {
	Exam     string `json:"exam"`
	Date     string `json:"date"`
	DaysLeft int    `json:"days_left"`
}

// DailySummary provides a quick overview of a single day within a week.
type DailySummary struct {
	Date      string  `json:"date"`
	DayOfWeek string  `json:"day_of_week"`
	Minutes   float64 `json:"minutes"`
	Sessions  int     `json:"sessions"`
	Tests     int     `json:"tests"`
}
