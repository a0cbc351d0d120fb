// Package scoutcache content-addresses Scout reports under
// <ArtifactRoot>/cache so an unchanged working tree can skip repeated
// Scout LLM calls across replans. Grounded on
// internal/attractor/engine/cxdb_sink.go's blake3.New()/io.Copy hashing
// idiom for the cache key, and on msgpack as the on-disk encoding (a
// transitive teacher dependency, promoted here to a direct one).
package scoutcache

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"github.com/danshapiro/actcore/internal/scoutschema"
)

// CachedReport is the on-disk, msgpack-encoded form of a Scout report.
type CachedReport struct {
	CacheKey      string          `msgpack:"cache_key"`
	SchemaVersion string          `msgpack:"schema_version"`
	ReportKind    scoutschema.Kind `msgpack:"report_kind"`
	Payload       map[string]any  `msgpack:"payload"`
	CreatedAt     time.Time       `msgpack:"created_at"`
}

// CacheKey hashes the sorted discovered-file list and task text with
// BLAKE3 and hex-encodes the digest. It is a pure function of its inputs:
// the result does not depend on the input slice's pre-sort order.
func CacheKey(repoFiles []string, taskText string) string {
	sorted := make([]string, len(repoFiles))
	copy(sorted, repoFiles)
	sort.Strings(sorted)

	h := blake3.New()
	for _, f := range sorted {
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte(taskText))
	return hex.EncodeToString(h.Sum(nil))
}

func path(root, key string, kind scoutschema.Kind) string {
	return filepath.Join(root, "cache", key+"-"+string(kind)+".msgpack")
}

// Get reads the cached report for key/kind under root. Any failure to
// stat, read, decode, or a schema-version mismatch is treated as a cache
// miss (ok=false) — this is an optimization layer, never a correctness
// dependency, so nothing here is fatal.
func Get(root, key string, kind scoutschema.Kind) (CachedReport, bool) {
	b, err := os.ReadFile(path(root, key, kind))
	if err != nil {
		return CachedReport{}, false
	}
	var cr CachedReport
	if err := msgpack.Unmarshal(b, &cr); err != nil {
		return CachedReport{}, false
	}
	if cr.SchemaVersion != scoutschema.SchemaVersion {
		return CachedReport{}, false
	}
	return cr, true
}

// Put encodes and writes report under root, creating cache/ if absent.
func Put(root, key string, kind scoutschema.Kind, payload map[string]any, createdAt time.Time) error {
	if err := os.MkdirAll(filepath.Join(root, "cache"), 0o755); err != nil {
		return err
	}
	cr := CachedReport{
		CacheKey:      key,
		SchemaVersion: scoutschema.SchemaVersion,
		ReportKind:    kind,
		Payload:       payload,
		CreatedAt:     createdAt,
	}
	b, err := msgpack.Marshal(cr)
	if err != nil {
		return err
	}
	return os.WriteFile(path(root, key, kind), b, 0o644)
}
