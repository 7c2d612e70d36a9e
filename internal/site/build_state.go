package site

import (
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
	"git.home.luguber.info/inful/blogbuilder/internal/feed"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/paginate"
	"git.home.luguber.info/inful/blogbuilder/internal/search"
	"git.home.luguber.info/inful/blogbuilder/internal/taxonomy"
)

// DocPage is one page of a document listing.
type DocPage = paginate.Page[*content.Document]

// TagListing is the paginated listing of one tag.
type TagListing struct {
	Term  taxonomy.Term
	Pages []DocPage
}

// BuildState carries the data flowing between stages of one run. Each
// stage owns the fields it sets; later stages only read them.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport

	Documents []*content.Document
	Corpus    *corpus.Corpus

	Tags      *taxonomy.Index
	TagPages  []TagListing // tag name order
	Listing   []DocPage
	Search    []search.Record
	FeedItems []feed.Entry
	HTML      [][]byte // rendered bodies by corpus position
	Artifacts []Artifact
	Manifest  *manifest.BuildManifest

	stageDir string
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{Generator: g, Report: report}
}
