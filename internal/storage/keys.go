package storage

import "strings"

// TimerStateKey is the single slot holding the active timer.
const TimerStateKey = "background_timer_state"

const (
	guestPrefix    = "guest_"
	cloudPrefix    = "cloud_"
	lastSyncSuffix = "last_cloud_sync"
)

// Bucket is one of the five logical partitions of the key space.
type Bucket int

const (
	BucketSessions Bucket = iota
	BucketScores
	BucketSubjects
	BucketPlans
	BucketExamDates
)

// Buckets lists every bucket in persistence order.
var Buckets = []Bucket{BucketSessions, BucketScores, BucketSubjects, BucketPlans, BucketExamDates}

type bucketNames struct {
	name    string // current snake_case key suffix
	camel   string // legacy bare camelCase key
	generic string // legacy generic noun
	hint    string // substring used for fuzzy key matching
}

var bucketTable = map[Bucket]bucketNames{
	BucketSessions:  {name: "study_sessions", camel: "studySessions", generic: "sessions", hint: "session"},
	BucketScores:    {name: "test_scores", camel: "testScores", generic: "scores", hint: "score"},
	BucketSubjects:  {name: "subjects", camel: "subjects", generic: "subjects", hint: "subject"},
	BucketPlans:     {name: "study_plans", camel: "studyPlans", generic: "plans", hint: "plan"},
	BucketExamDates: {name: "exam_dates", camel: "examDates", generic: "dates", hint: "exam"},
}

// Name is the bucket's key suffix, e.g. "study_sessions".
func (b Bucket) Name() string { return bucketTable[b].name }

// Hint is the lowercase substring that marks a key as belonging to the bucket.
func (b Bucket) Hint() string { return bucketTable[b].hint }

func (b Bucket) String() string {
	switch b {
	case BucketSessions:
		return "sessions"
	case BucketScores:
		return "scores"
	case BucketSubjects:
		return "subjects"
	case BucketPlans:
		return "plans"
	case BucketExamDates:
		return "exam dates"
	default:
		return "unknown"
	}
}

// Scope selects whose data a key belongs to. An empty UserID is the guest.
type Scope struct {
	UserID string
}

// Guest is the scope used when nobody is signed in.
var Guest = Scope{}

// IsUser reports whether the scope identifies a signed-in user.
func (s Scope) IsUser() bool { return s.UserID != "" }

// Prefix is "user_<id>_" for users and "guest_" otherwise.
func (s Scope) Prefix() string {
	if s.UserID == "" {
		return guestPrefix
	}
	return "user_" + s.UserID + "_"
}

// Key derives the primary key for a bucket in a scope.
func Key(b Bucket, s Scope) string {
	return s.Prefix() + b.Name()
}

// CloudKey derives the cloud mirror key for a bucket in a scope.
func CloudKey(b Bucket, s Scope) string {
	return cloudPrefix + Key(b, s)
}

// LastSyncKey is where the mirror's ISO timestamp is kept.
func LastSyncKey(s Scope) string {
	return s.Prefix() + lastSyncSuffix
}

// LegacyKeys returns, in probe order, every exact key name a bucket has been
// stored under: current, scoped, cloud-mirrored, uppercase, @-prefixed,
// camelCase and generic forms. User-specific names are only included when
// userID is set.
func LegacyKeys(b Bucket, userID string) []string {
	n := bucketTable[b]
	keys := []string{n.name, guestPrefix + n.name}
	if userID != "" {
		user := Scope{UserID: userID}
		keys = append(keys, Key(b, user), CloudKey(b, user))
	}
	keys = append(keys,
		strings.ToUpper(n.name),
		"@"+n.name,
		n.camel,
		n.generic,
		"user_"+n.generic,
		cloudPrefix+n.generic,
	)
	return dedupe(keys)
}

// MatchesHint reports whether an arbitrary store key looks like it holds
// data for the bucket even though it follows no known naming convention.
func MatchesHint(b Bucket, key string) bool {
	lower := strings.ToLower(key)
	if !looksLikeStudyData(lower) {
		return false
	}
	return strings.Contains(lower, b.Hint())
}

func looksLikeStudyData(lower string) bool {
	return (strings.Contains(lower, "session") && !strings.Contains(lower, "active")) ||
		strings.Contains(lower, "score") ||
		strings.Contains(lower, "subject") ||
		strings.Contains(lower, "plan") ||
		strings.Contains(lower, "exam")
}

// CandidateKeys combines the legacy names of a bucket with every present
// key that fuzzily matches it, deduplicated in first-seen order.
func CandidateKeys(b Bucket, userID string, present []string) []string {
	keys := LegacyKeys(b, userID)
	for _, k := range present {
		if MatchesHint(b, k) {
			keys = append(keys, k)
		}
	}
	return dedupe(keys)
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
