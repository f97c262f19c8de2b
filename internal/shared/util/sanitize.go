package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameLen bounds attachment names in bytes.
const MaxFileNameLen = 255

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a client-supplied attachment name into a single path
// segment: separators become underscores, control characters are dropped and
// long names are shortened with their extension kept. Traversal is rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errInvalidFileName
	}
	return truncateKeepExt(s, MaxFileNameLen), nil
}

func truncateKeepExt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	ext := path.Ext(s)
	if len(ext) >= limit {
		ext = ""
	}
	base := s[:limit-len(ext)]
	for !utf8.ValidString(base) {
		base = base[:len(base)-1]
	}
	return base + ext
}
