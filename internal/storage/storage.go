// Package storage owns the study-tracker key space: the record types, the
// key naming convention, the KV backends and the dataset repository that
// reads and writes a user's buckets through them.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"studytrack/internal/sanitize"
)

// Storage reads and writes one scope's dataset over a KV.
type Storage struct {
	kv     KV
	scope  Scope
	logger *slog.Logger
	now    func() time.Time // injectable clock for deterministic tests
}

// New creates a dataset repository for scope.
func New(kv KV, scope Scope) *Storage {
	return &Storage{
		kv:     kv,
		scope:  scope,
		logger: slog.Default().With("component", "storage"),
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock. Passing nil resets it to time.Now.
func (s *Storage) SetNowFunc(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// SetLogger replaces the repository logger.
func (s *Storage) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l.With("component", "storage")
	}
}

// KV exposes the underlying store.
func (s *Storage) KV() KV { return s.kv }

// Scope returns the scope this repository reads and writes.
func (s *Storage) Scope() Scope { return s.scope }

// ReadBucket returns the defensively decoded value of a bucket's primary key,
// falling back to the cloud mirror when the primary is missing or unusable.
func (s *Storage) ReadBucket(ctx context.Context, b Bucket) (any, error) {
	keys := []string{Key(b, s.scope)}
	if s.scope.IsUser() {
		keys = append(keys, CloudKey(b, s.scope))
	}

	for _, key := range keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if v := sanitize.Parse(raw, nil); v != nil {
			return v, nil
		}
		s.logger.Warn("unusable value in storage", "key", key, "verdict", sanitize.Classify(raw).String())
	}
	return nil, nil
}

// LoadDataset reads every bucket for the scope. Missing buckets come back
// empty; malformed records are dropped individually.
func (s *Storage) LoadDataset(ctx context.Context) (Dataset, error) {
	var ds Dataset

	for _, b := range Buckets {
		v, err := s.ReadBucket(ctx, b)
		if err != nil {
			return Dataset{}, err
		}
		switch b {
		case BucketSessions:
			ds.StudySessions = DecodeList[Session](AsList(v))
		case BucketScores:
			ds.TestScores = DecodeList[TestScore](AsList(v))
		case BucketSubjects:
			ds.Subjects = DecodeList[Subject](AsList(v))
		case BucketPlans:
			ds.StudyPlans = DecodeList[StudyPlan](AsList(v))
		case BucketExamDates:
			if dates, ok := DecodeObject[ExamDates](v); ok {
				ds.ExamDates = dates
			}
		}
	}

	ds.Normalize()
	return ds, nil
}

// SaveDataset writes all five buckets under the scope prefix.
func (s *Storage) SaveDataset(ctx context.Context, ds Dataset) error {
	ds.Normalize()
	for _, b := range Buckets {
		if err := s.WriteBucket(ctx, b, bucketValue(ds, b)); err != nil {
			return err
		}
	}
	return nil
}

// MirrorDataset duplicates every bucket under the cloud_ prefix and stamps
// the last sync time. Guests have no mirror, so this is a no-op for them.
func (s *Storage) MirrorDataset(ctx context.Context, ds Dataset) error {
	if !s.scope.IsUser() {
		return nil
	}
	ds.Normalize()
	for _, b := range Buckets {
		if err := s.writeJSON(ctx, CloudKey(b, s.scope), bucketValue(ds, b)); err != nil {
			return err
		}
	}
	stamp := s.now().UTC().Format(ISOMillis)
	if err := s.kv.Set(ctx, LastSyncKey(s.scope), stamp); err != nil {
		return fmt.Errorf("write %s: %w", LastSyncKey(s.scope), err)
	}
	return nil
}

// WriteBucket encodes v as JSON into the bucket's primary key.
func (s *Storage) WriteBucket(ctx context.Context, b Bucket, v any) error {
	return s.writeJSON(ctx, Key(b, s.scope), v)
}

func (s *Storage) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// AppendSession records a finished session, newest first.
func (s *Storage) AppendSession(ctx context.Context, session Session) error {
	v, err := s.ReadBucket(ctx, BucketSessions)
	if err != nil {
		return err
	}
	sessions := DecodeList[Session](AsList(v))
	sessions = append([]Session{session}, sessions...)
	return s.WriteBucket(ctx, BucketSessions, sessions)
}

// ISOMillis is the timestamp layout used for every persisted time string.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

func bucketValue(ds Dataset, b Bucket) any {
	switch b {
	case BucketSessions:
		return ds.StudySessions
	case BucketScores:
		return ds.TestScores
	case BucketSubjects:
		return ds.Subjects
	case BucketPlans:
		return ds.StudyPlans
	default:
		return ds.ExamDates
	}
}
