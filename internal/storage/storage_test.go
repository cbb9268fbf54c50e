package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// createTestStorage creates a repository over a fresh in-memory store.
func createTestStorage(t testing.TB, scope Scope) (*Storage, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	return New(kv, scope), kv
}

func sampleDataset() Dataset {
	return Dataset{
		StudySessions: []Session{
			{ID: "s1", SubjectID: "anat", StartTime: "2024-01-02T08:00:00.000Z", EndTime: "2024-01-02T09:00:00.000Z", Duration: 60, Date: "2024-01-02"},
		},
		TestScores: []TestScore{
			{ID: "t1", TestName: "Mock 1", TestType: TestTypeMock, Date: "2024-01-03", TotalMarks: 200, ObtainedMarks: 150, SubjectScores: []SubjectScore{}},
		},
		Subjects:   []Subject{{ID: "anat", Name: "Anatomy", Color: "#f00", TargetHours: 100}},
		StudyPlans: []StudyPlan{{SubjectID: "anat", DailyTarget: 60, WeeklyTarget: 420, Priority: PriorityHigh}},
		ExamDates:  ExamDates{NEETPG: "2024-06-23"},
	}
}

func TestSaveAndLoadDataset(t *testing.T) {
	store, kv := createTestStorage(t, Scope{UserID: "u1"})
	ctx := context.Background()

	if err := store.SaveDataset(ctx, sampleDataset()); err != nil {
		t.Fatalf("SaveDataset() error = %v", err)
	}

	if _, ok, _ := kv.Get(ctx, "user_u1_study_sessions"); !ok {
		t.Fatal("expected user_u1_study_sessions to be written")
	}

	got, err := store.LoadDataset(ctx)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if len(got.StudySessions) != 1 || got.StudySessions[0].ID != "s1" {
		t.Errorf("sessions = %+v", got.StudySessions)
	}
	if got.ExamDates.NEETPG != "2024-06-23" {
		t.Errorf("exam dates = %+v", got.ExamDates)
	}
	if got.StudyPlans[0].Priority != PriorityHigh {
		t.Errorf("plan priority = %q", got.StudyPlans[0].Priority)
	}
}

func TestLoadDataset_EmptyStore(t *testing.T) {
	store, _ := createTestStorage(t, Guest)

	got, err := store.LoadDataset(context.Background())
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if got.StudySessions == nil || got.Subjects == nil || got.TestScores == nil || got.StudyPlans == nil {
		t.Error("collections should be empty, not nil")
	}
	if !got.IsEmpty() {
		t.Errorf("expected empty dataset, got %+v", got)
	}
}

func TestLoadDataset_FallsBackToCloudMirror(t *testing.T) {
	store, kv := createTestStorage(t, Scope{UserID: "u1"})
	ctx := context.Background()

	_ = kv.Set(ctx, "user_u1_subjects", "[object Object]")
	_ = kv.Set(ctx, "cloud_user_u1_subjects", `[{"id":"p","name":"Physiology"}]`)

	got, err := store.LoadDataset(ctx)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if len(got.Subjects) != 1 || got.Subjects[0].Name != "Physiology" {
		t.Errorf("subjects = %+v, want mirror copy", got.Subjects)
	}
}

func TestLoadDataset_DropsMalformedRecords(t *testing.T) {
	store, kv := createTestStorage(t, Guest)
	ctx := context.Background()

	_ = kv.Set(ctx, "guest_study_sessions", `[{"id":"ok","subjectId":"a","duration":5},{"id":"bad","duration":"long"},null]`)

	got, err := store.LoadDataset(ctx)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if len(got.StudySessions) != 1 || got.StudySessions[0].ID != "ok" {
		t.Errorf("sessions = %+v, want only the well-formed one", got.StudySessions)
	}
}

func TestMirrorDataset(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 30, 0, 123e6, time.UTC)
	ctx := context.Background()

	t.Run("user", func(t *testing.T) {
		store, kv := createTestStorage(t, Scope{UserID: "u1"})
		store.SetNowFunc(func() time.Time { return fixed })

		if err := store.MirrorDataset(ctx, sampleDataset()); err != nil {
			t.Fatalf("MirrorDataset() error = %v", err)
		}
		for _, b := range Buckets {
			if _, ok, _ := kv.Get(ctx, CloudKey(b, store.Scope())); !ok {
				t.Errorf("missing mirror for %v", b)
			}
		}
		stamp, _, _ := kv.Get(ctx, "user_u1_last_cloud_sync")
		if stamp != "2024-05-01T10:30:00.123Z" {
			t.Errorf("last sync = %q", stamp)
		}
	})

	t.Run("guest", func(t *testing.T) {
		store, kv := createTestStorage(t, Guest)
		if err := store.MirrorDataset(ctx, sampleDataset()); err != nil {
			t.Fatalf("MirrorDataset() error = %v", err)
		}
		keys, _ := kv.Keys(ctx)
		if len(keys) != 0 {
			t.Errorf("guest mirror wrote %v", keys)
		}
	})
}

func TestAppendSession(t *testing.T) {
	store, kv := createTestStorage(t, Guest)
	ctx := context.Background()

	for _, id := range []string{"first", "second"} {
		if err := store.AppendSession(ctx, Session{ID: id, SubjectID: "x", Duration: 1}); err != nil {
			t.Fatalf("AppendSession() error = %v", err)
		}
	}

	raw, _, _ := kv.Get(ctx, "guest_study_sessions")
	var sessions []Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		t.Fatalf("stored sessions are not JSON: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "second" {
		t.Errorf("sessions = %+v, want newest first", sessions)
	}
}

func TestDatasetHelpers(t *testing.T) {
	ds := sampleDataset()
	if ds.TotalItems() != 4 {
		t.Errorf("TotalItems() = %d, want 4", ds.TotalItems())
	}
	if ds.TotalMinutes() != 60 {
		t.Errorf("TotalMinutes() = %v, want 60", ds.TotalMinutes())
	}

	var empty Dataset
	empty.Normalize()
	data, _ := json.Marshal(empty)
	want := `{"studySessions":[],"testScores":[],"subjects":[],"studyPlans":[],"examDates":{"NEET_PG":"","INICET":""}}`
	if string(data) != want {
		t.Errorf("normalized dataset = %s\nwant %s", data, want)
	}
}

func TestNormalize_LeavesCallerSliceAlone(t *testing.T) {
	scores := []TestScore{{ID: "t1"}, {ID: "t2", SubjectScores: []SubjectScore{{SubjectID: "a"}}}}
	ds := Dataset{TestScores: scores}

	byValue := ds
	byValue.Normalize()

	if byValue.TestScores[0].SubjectScores == nil {
		t.Error("normalized copy still has nil SubjectScores")
	}
	if scores[0].SubjectScores != nil || ds.TestScores[0].SubjectScores != nil {
		t.Error("normalizing a copy wrote through to the caller's slice")
	}
	if len(byValue.TestScores[1].SubjectScores) != 1 {
		t.Errorf("existing SubjectScores = %v, want 1 entry", byValue.TestScores[1].SubjectScores)
	}
}
