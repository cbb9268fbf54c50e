package storage

import (
	"slices"
	"strings"
	"time"
)

// Session is one completed block of study time.
type Session struct {
	ID          string  `json:"id"`
	SubjectID   string  `json:"subjectId"`
	SubjectName string  `json:"subjectName,omitempty"` // kept for historical accuracy after renames
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Duration    float64 `json:"duration"` // minutes
	Date        string  `json:"date"`
	Notes       string  `json:"notes,omitempty"`
}

// TestType identifies the exam a test score was practice for.
type TestType string

const (
	TestTypeINICET TestType = "INICET"
	TestTypeNEET   TestType = "NEET"
	TestTypeMock   TestType = "Mock"
)

// TestScore is the result of one practice or mock test.
type TestScore struct {
	ID            string         `json:"id"`
	TestName      string         `json:"testName"`
	TestType      TestType       `json:"testType"`
	Date          string         `json:"date"`
	TotalMarks    float64        `json:"totalMarks"`
	ObtainedMarks float64        `json:"obtainedMarks"`
	SubjectScores []SubjectScore `json:"subjectScores"`
}

// SubjectScore breaks a TestScore down by subject.
type SubjectScore struct {
	SubjectID      string  `json:"subjectId"`
	TotalQuestions int     `json:"totalQuestions"`
	CorrectAnswers int     `json:"correctAnswers"`
	Percentage     float64 `json:"percentage"`
}

// Subject is a user-configured study subject with an hours target.
type Subject struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Color          string   `json:"color"`
	TargetHours    float64  `json:"targetHours"`
	CompletedHours float64  `json:"completedHours"`
	AverageMarks   *float64 `json:"averageMarks,omitempty"`
	MarksProgress  *float64 `json:"marksProgress,omitempty"`
}

// Priority of a study plan.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// StudyPlan holds per-subject targets. At most one plan exists per subject.
type StudyPlan struct {
	SubjectID    string   `json:"subjectId"`
	DailyTarget  float64  `json:"dailyTarget"`  // minutes
	WeeklyTarget float64  `json:"weeklyTarget"` // minutes
	Priority     Priority `json:"priority"`
}

// ExamDates is the fixed two-exam countdown record. Empty means unset.
type ExamDates struct {
	NEETPG string `json:"NEET_PG"`
	INICET string `json:"INICET"`
}

// IsEmpty reports whether neither date is set.
func (d ExamDates) IsEmpty() bool {
	return d.NEETPG == "" && d.INICET == ""
}

// Dataset is everything the app persists for one user (or the guest).
type Dataset struct {
	StudySessions []Session   `json:"studySessions"`
	TestScores    []TestScore `json:"testScores"`
	Subjects      []Subject   `json:"subjects"`
	StudyPlans    []StudyPlan `json:"studyPlans"`
	ExamDates     ExamDates   `json:"examDates"`
}

// Normalize replaces nil collections with empty ones so the dataset always
// encodes arrays, never null.
func (d *Dataset) Normalize() {
	if d.StudySessions == nil {
		d.StudySessions = []Session{}
	}
	if d.TestScores == nil {
		d.TestScores = []TestScore{}
	}
	if d.Subjects == nil {
		d.Subjects = []Subject{}
	}
	if d.StudyPlans == nil {
		d.StudyPlans = []StudyPlan{}
	}
	// Copy before filling so a Dataset passed by value never writes into
	// the caller's backing array.
	copied := false
	for i := range d.TestScores {
		if d.TestScores[i].SubjectScores != nil {
			continue
		}
		if !copied {
			d.TestScores = slices.Clone(d.TestScores)
			copied = true
		}
		d.TestScores[i].SubjectScores = []SubjectScore{}
	}
}

// TotalItems counts records across the four collections.
func (d Dataset) TotalItems() int {
	return len(d.StudySessions) + len(d.TestScores) + len(d.Subjects) + len(d.StudyPlans)
}

// IsEmpty reports whether the dataset holds no records and no exam dates.
func (d Dataset) IsEmpty() bool {
	return d.TotalItems() == 0 && d.ExamDates.IsEmpty()
}

// TotalMinutes sums session durations.
func (d Dataset) TotalMinutes() float64 {
	var total float64
	for _, s := range d.StudySessions {
		total += s.Duration
	}
	return total
}

var timeLayouts = []string{time.RFC3339Nano, ISOMillis, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime accepts the timestamp forms found in stored records and
// backups. Values without a zone are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
