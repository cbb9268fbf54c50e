package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studytrack/internal/reports"
	"studytrack/internal/storage"
)

func TestReportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"markdown", "markdown", false},
		{"md", "markdown", false},
		{"json", "json", false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := reportFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRenderReport(t *testing.T) {
	ctx := context.Background()
	repo := storage.New(storage.NewMemoryKV(), storage.Guest)
	require.NoError(t, repo.SaveDataset(ctx, storage.Dataset{
		StudySessions: []storage.Session{{ID: "s1", SubjectID: "anat", Duration: 50, Date: "2024-03-11"}},
		Subjects:      []storage.Subject{{ID: "anat", Name: "Anatomy"}},
	}))
	gen := reports.NewGenerator(repo)
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.Local)

	md, err := renderReport(ctx, gen, day, false, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Study Report: Monday, March 11, 2024")
	assert.Contains(t, md, "- **Anatomy**: 50m (100%)")

	weekly, err := renderReport(ctx, gen, day, true, "markdown")
	require.NoError(t, err)
	assert.Contains(t, weekly, "# Weekly Study Report: Mar 10 - Mar 16, 2024")

	out, err := renderReport(ctx, gen, day, true, "json")
	require.NoError(t, err)
	var decoded reports.WeeklyReport
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.InDelta(t, 50, decoded.Study.TotalMinutes, 0.001)
	assert.Len(t, decoded.DailyBreakdown, 7)
}
