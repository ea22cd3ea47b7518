package compare

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sharesync/internal/model"
)

// Stat computes the comparison state of one file. A missing or unreadable
// file yields Exists=false with an empty hash, not an error, so callers can
// treat "doesn't exist yet" uniformly. Nothing is cached: a file deleted
// mid-run is observed as missing on the next call.
func Stat(path string) model.FileStat {
	stat := model.FileStat{Path: path}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return stat
	}

	sum, err := hashFile(path)
	if err != nil {
		return stat
	}

	stat.Exists = true
	stat.Hash = sum
	stat.ModTime = info.ModTime()
	stat.Size = info.Size()
	return stat
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// NeedsSync reports whether dst must be updated from src: dst is missing, or
// the content hashes differ. Size and mtime never decide equality.
func NeedsSync(src, dst model.FileStat) bool {
	if !src.Exists {
		return false
	}

	return !dst.Exists || src.Hash != dst.Hash
}

// IsExcluded matches a mapping-relative path against exclusion patterns.
// A pattern excludes the path when it glob-matches any single path segment
// (filename-style patterns like "*.pyc"), or when it names the path itself
// or a directory prefix of it (subtree patterns like "build/cache").
func IsExcluded(relPath string, patterns []string) bool {
	rel := filepath.ToSlash(relPath)
	segments := strings.Split(rel, "/")

	for _, pattern := range patterns {
		p := filepath.ToSlash(pattern)

		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}

		for _, segment := range segments {
			if matched, err := filepath.Match(p, segment); err == nil && matched {
				return true
			}
		}
	}

	return false
}
