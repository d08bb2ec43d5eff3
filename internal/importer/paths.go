package importer

import (
	"errors"
	"path"
	"strings"
)

var errUnsafeSlug = errors.New("importer: unsafe slug")

// safeSlug validates a slug before it is joined into archive file paths.
// Slugs come from user-supplied metadata files; anything that would escape
// the archive folder is rejected.
func safeSlug(slug string) (string, error) {
	if slug == "" || strings.ContainsRune(slug, 0) {
		return "", errUnsafeSlug
	}
	s := strings.ReplaceAll(slug, "\\", "/")
	if strings.HasPrefix(s, "/") {
		return "", errUnsafeSlug
	}
	clean := path.Clean(s)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errUnsafeSlug
	}
	return clean, nil
}
