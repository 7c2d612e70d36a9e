// Package manifest records what a build consumed and produced: every
// document with its content fingerprint and every artifact with its size and
// xxhash digest.
package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FileName is the manifest's path inside the output directory.
const FileName = "manifest.json"

// BuildManifest represents a complete record of a build's inputs and outputs.
// It carries no timestamps so unchanged inputs produce an identical manifest.
type BuildManifest struct {
	Generator string  `json:"generator"`
	Inputs    Inputs  `json:"inputs"`
	Outputs   Outputs `json:"outputs"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	ConfigDigest string     `json:"config_digest"`
	Documents    []Document `json:"documents"`
}

// Document is one published document.
type Document struct {
	Slug        string `json:"slug"`
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
}

// Outputs captures all outputs from the build.
type Outputs struct {
	Artifacts []Artifact `json:"artifacts"`
}

// Artifact is one written file, path relative to the output root.
type Artifact struct {
	Path   string `json:"path"`
	Size   int    `json:"size"`
	Digest string `json:"digest"`
}

// New returns an empty manifest.
func New(generator string) *BuildManifest {
	return &BuildManifest{
		Generator: generator,
		Inputs:    Inputs{Documents: []Document{}},
		Outputs:   Outputs{Artifacts: []Artifact{}},
	}
}

// Sum returns the hex xxhash64 digest of data.
func Sum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// ConfigDigest digests the JSON encoding of v.
func ConfigDigest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal config for digest: %w", err)
	}
	return Sum(data), nil
}

// AddDocument records a consumed document.
func (m *BuildManifest) AddDocument(slug, source, fingerprint string) {
	m.Inputs.Documents = append(m.Inputs.Documents, Document{Slug: slug, Source: source, Fingerprint: fingerprint})
}

// AddArtifact records a written file and its digest.
func (m *BuildManifest) AddArtifact(path string, data []byte) {
	m.Outputs.Artifacts = append(m.Outputs.Artifacts, Artifact{Path: path, Size: len(data), Digest: Sum(data)})
}

// Sort orders documents by slug and artifacts by path.
func (m *BuildManifest) Sort() {
	slices.SortFunc(m.Inputs.Documents, func(a, b Document) int { return strings.Compare(a.Slug, b.Slug) })
	slices.SortFunc(m.Outputs.Artifacts, func(a, b Artifact) int { return strings.Compare(a.Path, b.Path) })
}

// Digest identifies the output set: equal digests mean byte-identical
// artifacts built from identically fingerprinted documents.
func (m *BuildManifest) Digest() string {
	h := xxhash.New()
	_, _ = fmt.Fprintf(h, "config %s\n", m.Inputs.ConfigDigest)
	for _, d := range m.Inputs.Documents {
		_, _ = fmt.Fprintf(h, "doc %s %s\n", d.Slug, d.Fingerprint)
	}
	for _, a := range m.Outputs.Artifacts {
		_, _ = fmt.Fprintf(h, "artifact %s %d %s\n", a.Path, a.Size, a.Digest)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Changes lists artifact paths that differ between two manifests.
type Changes struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Diff compares m against a previous manifest. A nil prev reports every
// artifact as added.
func (m *BuildManifest) Diff(prev *BuildManifest) Changes {
	before := map[string]string{}
	if prev != nil {
		for _, a := range prev.Outputs.Artifacts {
			before[a.Path] = a.Digest
		}
	}

	var ch Changes
	seen := make(map[string]bool, len(m.Outputs.Artifacts))
	for _, a := range m.Outputs.Artifacts {
		seen[a.Path] = true
		old, ok := before[a.Path]
		switch {
		case !ok:
			ch.Added = append(ch.Added, a.Path)
		case old != a.Digest:
			ch.Modified = append(ch.Modified, a.Path)
		}
	}
	for path := range before {
		if !seen[path] {
			ch.Removed = append(ch.Removed, path)
		}
	}
	slices.Sort(ch.Added)
	slices.Sort(ch.Removed)
	slices.Sort(ch.Modified)
	return ch
}
