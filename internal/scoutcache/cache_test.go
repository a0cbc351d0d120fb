package scoutcache

import (
	"testing"
	"time"

	"github.com/danshapiro/actcore/internal/scoutschema"
)

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a := CacheKey([]string{"b.go", "a.go", "c.go"}, "do the task")
	b := CacheKey([]string{"a.go", "b.go", "c.go"}, "do the task")
	if a != b {
		t.Fatalf("CacheKey should not depend on input order: %q != %q", a, b)
	}
}

func TestCacheKeyDiffersOnTaskText(t *testing.T) {
	files := []string{"a.go", "b.go"}
	a := CacheKey(files, "task one")
	b := CacheKey(files, "task two")
	if a == b {
		t.Fatal("CacheKey should differ when task text differs")
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	root := t.TempDir()
	key := CacheKey([]string{"main.go"}, "fix the bug")
	payload := map[string]any{"version": "1", "risk_zones": []any{"internal/verifier"}}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := Put(root, key, scoutschema.KindScoutA, payload, now); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := Get(root, key, scoutschema.KindScoutA)
	if !ok {
		t.Fatal("Get reported a miss after Put")
	}
	if got.CacheKey != key {
		t.Errorf("CacheKey = %q, want %q", got.CacheKey, key)
	}
	if got.SchemaVersion != scoutschema.SchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", got.SchemaVersion, scoutschema.SchemaVersion)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}

func TestGetMissesOnUnwrittenKey(t *testing.T) {
	root := t.TempDir()
	if _, ok := Get(root, "nonexistent", scoutschema.KindScoutA); ok {
		t.Fatal("expected a cache miss for an unwritten key")
	}
}

func TestGetDistinguishesKindUnderSameKey(t *testing.T) {
	root := t.TempDir()
	key := CacheKey([]string{"main.go"}, "task")
	now := time.Now().UTC()
	if err := Put(root, key, scoutschema.KindScoutA, map[string]any{"version": "1"}, now); err != nil {
		t.Fatalf("Put scout_a: %v", err)
	}
	if _, ok := Get(root, key, scoutschema.KindScoutB); ok {
		t.Fatal("Get(KindScoutB) should miss when only KindScoutA was written")
	}
}
