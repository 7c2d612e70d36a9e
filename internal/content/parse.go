package content

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/inful/mdfp"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/util/sets"
)

// Header field names recognised by the document schema.
const (
	FieldTitle   = "title"
	FieldDate    = "date"
	FieldTags    = "tags"
	FieldDraft   = "draft"
	FieldSummary = "summary"
	FieldSlug    = "slug"
	FieldHeader  = "header"
)

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04",
}

// Parse turns a raw document source into a validated Document.
//
// Every header problem is reported as a DocumentParseError naming source and
// field; when several fields are invalid the errors are joined.
func Parse(source string, raw []byte) (*Document, error) {
	header, body, had, err := frontmatter.Split(raw)
	if err != nil {
		return nil, parseError(source, FieldHeader, "malformed header", err)
	}
	if !had {
		return nil, parseError(source, FieldHeader, "missing YAML header", nil)
	}
	fields, err := frontmatter.ParseYAML(header)
	if err != nil {
		return nil, parseError(source, FieldHeader, "invalid YAML header", err)
	}

	doc := &Document{
		Source: source,
		Body:   body,
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	doc.Title, err = requiredString(source, fields, FieldTitle)
	collect(err)
	doc.Date, err = requiredDate(source, fields)
	collect(err)
	doc.Tags, err = optionalTags(source, fields)
	collect(err)
	doc.Draft, err = optionalBool(source, fields, FieldDraft)
	collect(err)
	doc.Summary, err = optionalString(source, fields, FieldSummary)
	collect(err)
	doc.Slug, err = resolveSlug(source, fields)
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	doc.Fingerprint = mdfp.CalculateFingerprintFromParts(string(header), string(body))
	return doc, nil
}

func parseError(source, field, message string, cause error) error {
	b := ferrors.DocumentParseError(message).WithSource(source).WithField(field)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

func requiredString(source string, fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", parseError(source, key, "missing required field", nil)
	}
	s, ok := scalarString(raw)
	if !ok {
		return "", parseError(source, key, fmt.Sprintf("expected a string, got %T", raw), nil)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", parseError(source, key, "must not be empty", nil)
	}
	return s, nil
}

func optionalString(source string, fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := scalarString(raw)
	if !ok {
		return "", parseError(source, key, fmt.Sprintf("expected a string, got %T", raw), nil)
	}
	return strings.TrimSpace(s), nil
}

// scalarString accepts strings and numeric scalars (an unquoted title such as
// 1984 decodes as an int).
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int, int64, uint64, float64:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}

func requiredDate(source string, fields map[string]any) (time.Time, error) {
	raw, ok := fields[FieldDate]
	if !ok || raw == nil {
		return time.Time{}, parseError(source, FieldDate, "missing required field", nil)
	}
	switch v := raw.(type) {
	case time.Time:
		return calendarDate(v), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return calendarDate(t), nil
			}
		}
		return time.Time{}, parseError(source, FieldDate, fmt.Sprintf("invalid date %q, use YYYY-MM-DD or RFC 3339", s), nil)
	default:
		return time.Time{}, parseError(source, FieldDate, fmt.Sprintf("expected a date, got %T", raw), nil)
	}
}

// calendarDate keeps the calendar date of t as written, at UTC midnight.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func optionalTags(source string, fields map[string]any) ([]string, error) {
	raw, ok := fields[FieldTags]
	if !ok || raw == nil {
		return []string{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, parseError(source, FieldTags, fmt.Sprintf("expected a list of strings, got %T", raw), nil)
	}
	seen := sets.New[string]()
	for i, item := range items {
		s, ok := scalarString(item)
		if !ok {
			return nil, parseError(source, FieldTags, fmt.Sprintf("tag %d: expected a string or number, got %T", i+1, item), nil)
		}
		tag := NormalizeTag(s)
		if tag == "" {
			return nil, parseError(source, FieldTags, fmt.Sprintf("tag %d is empty", i+1), nil)
		}
		seen.Add(tag)
	}
	return sets.Sorted(seen), nil
}

func optionalBool(source string, fields map[string]any, key string) (bool, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, parseError(source, key, fmt.Sprintf("expected a boolean, got %T", raw), nil)
	}
	return b, nil
}

func resolveSlug(source string, fields map[string]any) (string, error) {
	override, err := optionalString(source, fields, FieldSlug)
	if err != nil {
		return "", err
	}
	if override != "" {
		slug := normalizeSlug(override)
		if slug == "" {
			return "", parseError(source, FieldSlug, fmt.Sprintf("slug %q is empty after normalization", override), nil)
		}
		return slug, nil
	}
	slug := SlugFromPath(source)
	if slug == "" {
		return "", parseError(source, FieldSlug, "cannot derive a slug from the source path", nil)
	}
	return slug, nil
}

// Flatten expands joined errors into their parts, recursively.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, inner := range joined.Unwrap() {
		out = append(out, Flatten(inner)...)
	}
	return slices.Clip(out)
}
