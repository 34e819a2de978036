package image

import (
	"fmt"
	"strings"
)

// DefaultSuffix is used when the Content-Type subtype is empty.
const DefaultSuffix = "jpg"

var imageSuffixes = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
	"bmp":  {},
}

// FileName builds the on-disk name for one task: the title hint (or the
// URL's trailing path segment), the sequence index, and an extension kept
// from the candidate when it is a known image extension, derived from the
// Content-Type subtype otherwise.
func FileName(titleHint, sourceURL string, sequenceIndex int, contentType string) string {
	base := baseName(titleHint, sourceURL)
	stem, suffix := splitImageSuffix(base)
	if suffix != "" {
		return fmt.Sprintf("%s-%d.%s", stem, sequenceIndex, suffix)
	}
	return ResolveFileName(fmt.Sprintf("%s-%d", base, sequenceIndex), contentType)
}

// ResolveFileName decides the final file name for a candidate: a trailing
// extension from the known image set is kept as-is, anything else gets an
// extension derived from the Content-Type subtype.
func ResolveFileName(candidate, contentType string) string {
	if _, suffix := splitImageSuffix(candidate); suffix != "" {
		return candidate
	}
	suffix := subtype(contentType)
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return candidate + "." + suffix
}

// splitImageSuffix splits off a trailing known image extension,
// case-insensitively. suffix is empty when there is none.
func splitImageSuffix(name string) (stem, suffix string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name, ""
	}
	candidate := strings.ToLower(name[idx+1:])
	if _, ok := imageSuffixes[candidate]; !ok {
		return name, ""
	}
	return name[:idx], candidate
}

// subtype returns the part of a media type after "/", without parameters.
func subtype(contentType string) string {
	_, sub, found := strings.Cut(contentType, "/")
	if !found {
		return ""
	}
	if idx := strings.Index(sub, ";"); idx >= 0 {
		sub = sub[:idx]
	}
	return strings.TrimSpace(sub)
}

// baseName derives the name base for a task: the title hint when present,
// the URL's trailing path segment otherwise.
func baseName(titleHint, sourceURL string) string {
	if titleHint != "" {
		return titleHint
	}
	name := sourceURL
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
