// Package sanitize is the trust boundary between untyped persisted strings
// and the typed study records. It classifies raw values against named
// corruption signatures and defensively decodes whatever survives.
package sanitize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Signature is a named pattern describing one known way a stored value gets
// mangled (a stringified object placeholder, a bare type name, ...).
type Signature struct {
	Name    string
	Pattern *regexp.Regexp
}

// Matches reports whether the trimmed value matches the signature.
func (s Signature) Matches(trimmed string) bool {
	return s.Pattern.MatchString(trimmed)
}

// RecoverySignatures are checked, in order, before any decode attempt.
var RecoverySignatures = []Signature{
	{Name: "bare-object", Pattern: regexp.MustCompile(`(?i)^object$`)},
	{Name: "object-prefix", Pattern: regexp.MustCompile(`(?i)^object\s`)},
	{Name: "object-object", Pattern: regexp.MustCompile(`(?i)^object Object$`)},
	{Name: "bracketed-object-object", Pattern: regexp.MustCompile(`(?i)^\[object Object\]$`)},
	{Name: "bracketed-object-word", Pattern: regexp.MustCompile(`(?i)^\[object\s+\w+\]$`)},
	{Name: "nan", Pattern: regexp.MustCompile(`(?i)^NaN$`)},
	{Name: "undefined", Pattern: regexp.MustCompile(`(?i)^undefined$`)},
	{Name: "function-source", Pattern: regexp.MustCompile(`(?i)^function`)},
	{Name: "word-object", Pattern: regexp.MustCompile(`(?i)^\w+\s+object`)},
	{Name: "object-object-anywhere", Pattern: regexp.MustCompile(`(?i)object\s*Object`)},
	{Name: "two-words", Pattern: regexp.MustCompile(`^[a-zA-Z]+\s+[a-zA-Z]+$`)},
}

// StrictSignatures guard the whole-record slots (timer state, backup files)
// where a single alphabetic token is never a legitimate payload.
var StrictSignatures = []Signature{
	{Name: "empty", Pattern: regexp.MustCompile(`^$`)},
	{Name: "bare-object", Pattern: regexp.MustCompile(`^object$`)},
	{Name: "object-object-anywhere", Pattern: regexp.MustCompile(`\[object Object\]`)},
	{Name: "object-placeholder-prefix", Pattern: regexp.MustCompile(`^\[object`)},
	{Name: "single-word", Pattern: regexp.MustCompile(`^[a-zA-Z]+$`)},
}

// Verdict is the outcome of classifying a raw stored value.
type Verdict int

const (
	// Clean values may still fail to decode; they just carry no known
	// corruption signature.
	Clean Verdict = iota
	// Missing covers absent, blank, "undefined" and "null".
	Missing
	// Corrupted values match a recovery signature.
	Corrupted
)

func (v Verdict) String() string {
	switch v {
	case Clean:
		return "clean"
	case Missing:
		return "missing"
	case Corrupted:
		return "corrupted"
	default:
		return "unknown"
	}
}

var (
	objectPlaceholder = regexp.MustCompile(`\[object Object\]`)
	jsonSpan          = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
	barePrimitive     = regexp.MustCompile(`^-?\d*\.?\d+$`)
)

// Match returns the first signature in sigs that matches the trimmed raw value.
func Match(raw string, sigs []Signature) (Signature, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, sig := range sigs {
		if sig.Matches(trimmed) {
			return sig, true
		}
	}
	return Signature{}, false
}

// IsCorrupted applies the strict signatures used for whole-record slots.
func IsCorrupted(raw string) bool {
	_, ok := Match(raw, StrictSignatures)
	return ok
}

// Classify sorts a raw stored value into missing, corrupted or clean.
func Classify(raw string) Verdict {
	if isMissing(raw) {
		return Missing
	}
	if _, ok := Match(raw, RecoverySignatures); ok {
		return Corrupted
	}
	return Clean
}

func isMissing(raw string) bool {
	if raw == "undefined" || raw == "null" {
		return true
	}
	return strings.TrimSpace(raw) == ""
}

// Candidate runs signature detection and light repair over raw and returns
// the text that should be handed to a JSON decoder. ok is false when the
// value must be treated as unusable.
func Candidate(raw string) (string, bool) {
	if Classify(raw) != Clean {
		return "", false
	}

	trimmed := strings.TrimSpace(raw)
	if strings.Contains(trimmed, "[object Object]") {
		trimmed = objectPlaceholder.ReplaceAllString(trimmed, "{}")
	}
	if span := jsonSpan.FindString(trimmed); span != "" {
		trimmed = span
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, `"`) {
		return trimmed, true
	}
	switch strings.ToLower(trimmed) {
	case "true", "false", "null":
		// Accepted case-insensitively here; the decoder still rejects "TRUE".
		return trimmed, true
	}
	if barePrimitive.MatchString(trimmed) {
		return trimmed, true
	}
	return "", false
}

// Parse decodes raw defensively. Missing, corrupted or undecodable input
// yields fallback; values that are already structured pass through.
func Parse(raw any, fallback any) any {
	var text string
	switch v := raw.(type) {
	case nil:
		return fallback
	case string:
		text = v
	case []byte:
		text = string(v)
	case *string:
		if v == nil {
			return fallback
		}
		text = *v
	default:
		return raw
	}

	candidate, ok := Candidate(text)
	if !ok {
		return fallback
	}
	var out any
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return fallback
	}
	return out
}

// Into decodes raw into v after the same screening as Parse. It reports
// whether v was populated.
func Into(raw string, v any) bool {
	candidate, ok := Candidate(raw)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(candidate), v) == nil
}
