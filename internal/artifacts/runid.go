// Package artifacts implements the on-disk artifact store: run identity,
// directory layout, manifests, and retention.
package artifacts

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const runIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RunID is the opaque identifier for one verification run, of the exact
// shape run_<YYYYMMDD>_<HHMMSS>_<6 lowercase alphanumerics> in UTC.
type RunID string

// NewRunID generates a fresh run id from the current UTC time and a
// cryptographically-sourced random suffix. Collisions are not retried here;
// AllocateRun surfaces a directory-creation failure if one occurs.
func NewRunID() (RunID, error) {
	now := time.Now().UTC()
	suffix, err := randomSuffix(6)
	if err != nil {
		return "", fmt.Errorf("generating run id suffix: %w", err)
	}
	return RunID(fmt.Sprintf("run_%s_%s_%s", now.Format("20060102"), now.Format("150405"), suffix)), nil
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = runIDAlphabet[int(b)%len(runIDAlphabet)]
	}
	return string(out), nil
}

// IsValid reports whether id has the exact run id shape: run_<8 digits>_<6
// digits>_<6 lowercase alphanumerics>, with the date/time segments parsing
// as a real UTC timestamp.
func IsValid(id RunID) bool {
	_, ok := ParseTimestamp(id)
	return ok
}

// ParseTimestamp extracts the UTC timestamp embedded in a run id. The
// second return value is false if id is not a validly-shaped run id.
func ParseTimestamp(id RunID) (time.Time, bool) {
	s := string(id)
	if !strings.HasPrefix(s, "run_") {
		return time.Time{}, false
	}
	parts := strings.Split(s, "_")
	if len(parts) != 4 {
		return time.Time{}, false
	}
	datePart, timePart, randomPart := parts[1], parts[2], parts[3]
	if len(datePart) != 8 || !isAllDigits(datePart) {
		return time.Time{}, false
	}
	if len(timePart) != 6 || !isAllDigits(timePart) {
		return time.Time{}, false
	}
	if len(randomPart) != 6 || !isRunIDAlphabet(randomPart) {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102_150405", datePart+"_"+timePart)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isRunIDAlphabet(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune(runIDAlphabet, c) {
			return false
		}
	}
	return true
}
