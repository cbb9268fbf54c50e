package storage

import (
	"reflect"
	"testing"
)

func TestKeyDerivation(t *testing.T) {
	user := Scope{UserID: "u1"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"guest sessions", Key(BucketSessions, Guest), "guest_study_sessions"},
		{"user scores", Key(BucketScores, user), "user_u1_test_scores"},
		{"user subjects cloud", CloudKey(BucketSubjects, user), "cloud_user_u1_subjects"},
		{"guest plans", Key(BucketPlans, Guest), "guest_study_plans"},
		{"exam dates", Key(BucketExamDates, user), "user_u1_exam_dates"},
		{"last sync", LastSyncKey(user), "user_u1_last_cloud_sync"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestLegacyKeys(t *testing.T) {
	got := LegacyKeys(BucketSessions, "u1")
	want := []string{
		"study_sessions",
		"guest_study_sessions",
		"user_u1_study_sessions",
		"cloud_user_u1_study_sessions",
		"STUDY_SESSIONS",
		"@study_sessions",
		"studySessions",
		"sessions",
		"user_sessions",
		"cloud_sessions",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LegacyKeys(sessions) =\n%v\nwant\n%v", got, want)
	}

	// Subjects have no distinct camelCase or generic name.
	got = LegacyKeys(BucketSubjects, "")
	want = []string{
		"subjects",
		"guest_subjects",
		"SUBJECTS",
		"@subjects",
		"user_subjects",
		"cloud_subjects",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LegacyKeys(subjects) =\n%v\nwant\n%v", got, want)
	}
}

func TestMatchesHint(t *testing.T) {
	tests := []struct {
		bucket Bucket
		key    string
		want   bool
	}{
		{BucketSessions, "MyOldSessions_v2", true},
		{BucketSessions, "active_session", false},
		{BucketScores, "mock_Scores_backup", true},
		{BucketSubjects, "subjectList", true},
		{BucketPlans, "weekly_PLAN", true},
		{BucketExamDates, "examCountdown", true},
		{BucketExamDates, "background_timer_state", false},
		{BucketSessions, "settings", false},
	}

	for _, tt := range tests {
		if got := MatchesHint(tt.bucket, tt.key); got != tt.want {
			t.Errorf("MatchesHint(%v, %q) = %v, want %v", tt.bucket, tt.key, got, tt.want)
		}
	}
}

func TestCandidateKeys_Dedupes(t *testing.T) {
	present := []string{"study_sessions", "old_session_cache", "active_session"}
	got := CandidateKeys(BucketSessions, "", present)

	seen := map[string]int{}
	for _, k := range got {
		seen[k]++
	}
	if seen["study_sessions"] != 1 {
		t.Errorf("study_sessions appears %d times, want 1", seen["study_sessions"])
	}
	if seen["old_session_cache"] != 1 {
		t.Error("fuzzy match old_session_cache missing")
	}
	if seen["active_session"] != 0 {
		t.Error("active_session must be excluded")
	}
	if got[len(got)-1] != "old_session_cache" {
		t.Errorf("fuzzy matches should follow exact names, got %v", got)
	}
}

func TestScopePrefix(t *testing.T) {
	if Guest.Prefix() != "guest_" {
		t.Errorf("guest prefix = %q", Guest.Prefix())
	}
	if Guest.IsUser() {
		t.Error("guest scope should not be a user")
	}
	if (Scope{UserID: "abc"}).Prefix() != "user_abc_" {
		t.Error("user prefix mismatch")
	}
}
