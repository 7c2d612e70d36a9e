package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// header delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml header start delimiter found but closing delimiter is missing")

// Split separates the `---` delimited YAML header from the document body.
//
// A leading UTF-8 byte order mark is ignored. Both LF and CRLF line endings
// are recognised; the newline style is taken from the first line break. If
// the document does not open with a delimiter line, had is false and body is
// the full input.
func Split(content []byte) (header []byte, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[start:], closeLine) {
		return []byte{}, content[start+len(closeLine):], true, nil
	}
	// A closing delimiter at end of file without a trailing newline.
	if bytes.Equal(content[start:], []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		if bytes.HasSuffix(content[start:], []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	headerEnd := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:headerEnd], content[bodyStart:], true, nil
}

// ParseYAML decodes a raw header (without delimiters) into a map. An empty
// header yields an empty map.
func ParseYAML(header []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(header)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
