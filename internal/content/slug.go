package content

import (
	"path"
	"strings"
	"unicode"
)

// SlugFromPath derives a stable slug from a source path relative to the
// content root. The extension is dropped, index files resolve to their
// directory, and each path segment is lower-cased with whitespace and
// underscores turned into hyphens.
func SlugFromPath(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	dir, base := path.Split(rel)
	if base == "index" || base == "_index" {
		rel = strings.TrimSuffix(dir, "/")
	}
	return normalizeSlug(rel)
}

// normalizeSlug canonicalizes every segment of a slash separated slug and
// drops empty segments.
func normalizeSlug(s string) string {
	segments := strings.Split(s, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg = slugSegment(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/")
}

func slugSegment(seg string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(seg)) {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
			continue
		}
		if r == '.' && b.Len() == 0 {
			continue
		}
		b.WriteRune(r)
		lastHyphen = false
	}
	return strings.TrimSuffix(b.String(), "-")
}
