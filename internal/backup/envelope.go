package backup

import (
	"math"
	"time"

	"studytrack/internal/storage"
)

// Format constants for the backup envelope.
const (
	FormatVersion   = "1.0.0"
	AppVersion      = "1.0.0"
	UnknownPlatform = "unknown"
)

// Envelope is the portable backup unit written to and read from JSON files.
type Envelope struct {
	Version    string          `json:"version"`
	ExportDate string          `json:"exportDate"`
	UserID     string          `json:"userId,omitempty"`
	UserEmail  string          `json:"userEmail,omitempty"`
	Data       storage.Dataset `json:"data"`
	Metadata   Metadata        `json:"metadata"`
}

// Metadata summarises an envelope's contents.
type Metadata struct {
	TotalSessions   int     `json:"totalSessions"`
	TotalTests      int     `json:"totalTests"`
	TotalStudyHours float64 `json:"totalStudyHours"`
	AppVersion      string  `json:"appVersion"`
	Platform        string  `json:"platform"`
}

// User identifies who an export belongs to. Both fields are optional.
type User struct {
	ID    string
	Email string
}

// NewEnvelope wraps ds with fresh metadata. Study hours are rounded to one
// decimal place.
func NewEnvelope(ds storage.Dataset, user User, now time.Time, appVersion, platform string) *Envelope {
	ds.Normalize()
	if appVersion == "" {
		appVersion = AppVersion
	}
	if platform == "" {
		platform = UnknownPlatform
	}
	return &Envelope{
		Version:    FormatVersion,
		ExportDate: now.UTC().Format(storage.ISOMillis),
		UserID:     user.ID,
		UserEmail:  user.Email,
		Data:       ds,
		Metadata: Metadata{
			TotalSessions:   len(ds.StudySessions),
			TotalTests:      len(ds.TestScores),
			TotalStudyHours: roundTenth(ds.TotalMinutes() / 60),
			AppVersion:      appVersion,
			Platform:        platform,
		},
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
