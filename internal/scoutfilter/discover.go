// Package scoutfilter walks a repository tree for the Scout Runtime,
// pruning excluded directories and rejecting binary or secret-bearing
// files so neither Scout ever sees content it shouldn't include in a
// prompt. Grounded on the teacher's doublestar.v4 dependency (required by
// go.mod but unexercised in the retrieved slice) for glob matching, and on
// the walk-and-prune shape of internal/attractor/ingest's file collection.
package scoutfilter

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExcludedDirs is the set of directory basenames pruned during discovery.
var ExcludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".idea":        true,
	".vscode":      true,
	".DS_Store":    true,
	".mypy_cache":  true,
	".pytest_cache": true,
	".tox":         true,
}

// BinaryExtensions is the set of file extensions (lowercased, with leading
// dot) rejected as non-text content.
var BinaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true, ".o": true, ".a": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true, ".flac": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
	".class": true, ".jar": true, ".pyc": true, ".pyo": true,
}

// SecretGlobs is the set of basename glob patterns whose matches are
// rejected regardless of extension.
var SecretGlobs = []string{
	".env*",
	"*credentials*",
	"*secret*",
	"*.pem",
	"*.key",
	"*.crt",
	"*.p12",
	"*.pfx",
	"id_rsa*",
	"id_ed25519*",
	".htpasswd",
	".netrc",
	".npmrc",
	".pypirc",
}

// IsExcludedDir reports whether a directory of this basename is pruned.
func IsExcludedDir(name string) bool { return ExcludedDirs[name] }

// IsBinaryExtension reports whether ext (as returned by filepath.Ext) names
// a binary file type.
func IsBinaryExtension(ext string) bool { return BinaryExtensions[strings.ToLower(ext)] }

// IsSecretFile reports whether basename matches one of SecretGlobs.
func IsSecretFile(basename string) bool {
	lower := strings.ToLower(basename)
	for _, pattern := range SecretGlobs {
		if ok, _ := doublestar.Match(pattern, lower); ok {
			return true
		}
	}
	return false
}

// Accept reports whether a regular file at relPath (repo-relative, forward
// slashes) should be included in a Scout's discovered file set.
func Accept(relPath string) bool {
	base := filepath.Base(relPath)
	if IsSecretFile(base) {
		return false
	}
	if IsBinaryExtension(filepath.Ext(base)) {
		return false
	}
	return true
}

// Discover walks root, pruning ExcludedDirs and filtering files via Accept,
// returning repo-relative paths in deterministic (sorted) walk order. A
// maxFiles of 0 or less is treated as unbounded; otherwise the result is
// truncated to the first maxFiles entries of walk order before sorting, so
// a cap always yields a deterministic prefix of the unbounded walk.
func Discover(root string, maxFiles int) ([]string, error) {
	var walked []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if IsExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !Accept(rel) {
			return nil
		}
		walked = append(walked, rel)
		if maxFiles > 0 && len(walked) >= maxFiles {
			return errStopWalk
		}
		return nil
	})
	if err != nil && err != errStopWalk {
		return nil, err
	}

	sort.Strings(walked)
	return walked, nil
}

type stopWalk struct{}

func (stopWalk) Error() string { return "scoutfilter: walk truncated at max_files" }

var errStopWalk error = stopWalk{}
