package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"studytrack/internal/sanitize"
	"studytrack/internal/storage"
)

// PickedFile is what a Picker hands back. An empty Path means the picker
// returned without a usable file.
type PickedFile struct {
	Name string
	Path string
}

// Picker asks the user for a backup file. It returns (nil, nil) when the
// user cancels.
type Picker interface {
	Pick(ctx context.Context) (*PickedFile, error)
}

// PathPicker always picks the same file.
type PathPicker string

func (p PathPicker) Pick(context.Context) (*PickedFile, error) {
	return &PickedFile{Name: string(p), Path: string(p)}, nil
}

// Shape is the layout a decoded backup arrived in.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeNative             // {version, data, ...}
	ShapeLegacyFlat         // {studySessions|sessions, testScores|scores, ...}
	ShapeBareArray          // [session, ...]
)

func (s Shape) String() string {
	switch s {
	case ShapeNative:
		return "native"
	case ShapeLegacyFlat:
		return "legacy"
	case ShapeBareArray:
		return "sessions-array"
	default:
		return "unrecognized"
	}
}

var legacyFields = []string{"studySessions", "sessions", "testScores", "scores", "subjects", "studyPlans", "plans"}

// DetectShape classifies a decoded JSON value.
func DetectShape(v any) Shape {
	switch t := v.(type) {
	case map[string]any:
		if truthy(t["version"]) && truthy(t["data"]) {
			return ShapeNative
		}
		for _, f := range legacyFields {
			if truthy(t[f]) {
				return ShapeLegacyFlat
			}
		}
	case []any:
		return ShapeBareArray
	}
	return ShapeUnrecognized
}

// Import asks the Picker for a file and decodes it. A cancelled pick
// returns (nil, nil).
func (c *Codec) Import(ctx context.Context) (*Envelope, error) {
	if c.Picker == nil {
		return nil, ErrNoFileSelected
	}
	picked, err := c.Picker.Pick(ctx)
	if err != nil {
		return nil, fmt.Errorf("pick backup: %w", err)
	}
	if picked == nil {
		return nil, nil
	}
	if picked.Path == "" {
		return nil, ErrNoFileSelected
	}
	data, err := os.ReadFile(picked.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", picked.Path, err)
	}
	env, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	c.log().Info("decoded backup", "file", picked.Name,
		"sessions", len(env.Data.StudySessions), "tests", len(env.Data.TestScores))
	return env, nil
}

// Decode validates raw file content and normalizes any supported shape into
// an Envelope.
func (c *Codec) Decode(raw []byte) (*Envelope, error) {
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}
	if sanitize.IsCorrupted(text) {
		return nil, ErrCorruptedFile
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var env *Envelope
	switch DetectShape(v) {
	case ShapeNative:
		env = fromNative(v.(map[string]any))
	case ShapeLegacyFlat:
		env = fromLegacy(v.(map[string]any), c.now())
	case ShapeBareArray:
		env = fromSessions(v.([]any), c.now())
	default:
		return nil, ErrUnrecognizedFormat
	}

	env.Data.Normalize()
	if env.Data.IsEmpty() {
		return nil, ErrNoData
	}
	return env, nil
}

// Decode is Codec.Decode with the wall clock.
func Decode(raw []byte) (*Envelope, error) {
	return (&Codec{}).Decode(raw)
}

func fromNative(m map[string]any) *Envelope {
	env := &Envelope{
		Version:    stringOf(m["version"]),
		ExportDate: stringOf(m["exportDate"]),
		UserID:     stringOf(m["userId"]),
		UserEmail:  stringOf(m["userEmail"]),
	}
	if md, ok := storage.DecodeObject[Metadata](m["metadata"]); ok {
		env.Metadata = md
	}
	data, _ := m["data"].(map[string]any)
	env.Data = datasetFrom(data["studySessions"], data["testScores"], data["subjects"], data["studyPlans"], data["examDates"])
	return env
}

func fromLegacy(m map[string]any, now time.Time) *Envelope {
	ds := datasetFrom(
		or(m["studySessions"], m["sessions"]),
		or(m["testScores"], m["scores"]),
		m["subjects"],
		or(m["studyPlans"], m["plans"]),
		m["examDates"],
	)
	return synthesized(ds, now)
}

func fromSessions(list []any, now time.Time) *Envelope {
	ds := storage.Dataset{StudySessions: storage.DecodeList[storage.Session](list)}
	return synthesized(ds, now)
}

// synthesized wraps data recovered from an older shape with the metadata a
// native export would have carried.
func synthesized(ds storage.Dataset, now time.Time) *Envelope {
	ds.Normalize()
	return &Envelope{
		Version:    FormatVersion,
		ExportDate: now.UTC().Format(storage.ISOMillis),
		Data:       ds,
		Metadata: Metadata{
			TotalSessions: len(ds.StudySessions),
			TotalTests:    len(ds.TestScores),
			AppVersion:    AppVersion,
			Platform:      UnknownPlatform,
		},
	}
}

func datasetFrom(sessions, scores, subjects, plans, dates any) storage.Dataset {
	ds := storage.Dataset{
		StudySessions: storage.DecodeList[storage.Session](storage.AsList(sessions)),
		TestScores:    storage.DecodeList[storage.TestScore](storage.AsList(scores)),
		Subjects:      storage.DecodeList[storage.Subject](storage.AsList(subjects)),
		StudyPlans:    storage.DecodeList[storage.StudyPlan](storage.AsList(plans)),
	}
	if d, ok := storage.DecodeObject[storage.ExamDates](dates); ok {
		ds.ExamDates = d
	}
	return ds
}

// truthy treats null, false, "" and 0 as absent. Empty arrays and objects
// count as present.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func or(a, b any) any {
	if truthy(a) {
		return a
	}
	return b
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
