package site

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/corpus"
	"git.home.luguber.info/inful/blogbuilder/internal/feed"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/paginate"
	"git.home.luguber.info/inful/blogbuilder/internal/search"
	"git.home.luguber.info/inful/blogbuilder/internal/taxonomy"
)

const generatorName = "blogbuilder"

func stageLoadDocuments(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	docs, err := content.LoadDir(ctx, g.config.Content.Directory, content.LoadOptions{
		Workers: g.config.Build.Workers,
		Logger:  g.logger,
	})
	if err != nil {
		return err
	}
	bs.Documents = docs
	g.logger.Info("Loaded documents", logfields.Count(len(docs)))
	return nil
}

func stageAssembleCorpus(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	c, err := corpus.Assemble(bs.Documents, corpus.Options{IncludeDrafts: g.config.Build.IncludeDrafts})
	if err != nil {
		return err
	}
	bs.Corpus = c
	bs.Report.Documents = c.Len()
	bs.Report.Drafts = c.Drafts()
	g.recorder.SetDocuments(c.Len(), c.Drafts())
	g.logger.Info("Assembled corpus", logfields.Count(c.Len()), "drafts_excluded", c.Drafts())
	return nil
}

// stageBuildViews runs the corpus consumers concurrently. Each goroutine
// sets only its own BuildState fields.
func stageBuildViews(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	opts := g.config.BuildOptions()
	c := bs.Corpus

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		ix := taxonomy.Build(c)
		listings := make([]TagListing, 0, ix.Len())
		for _, term := range ix.Terms() {
			pages, err := paginate.Plan(term.Documents, opts.PageSize, opts.EmptyListing)
			if err != nil {
				return err
			}
			listings = append(listings, TagListing{Term: term, Pages: pages})
		}
		bs.Tags, bs.TagPages = ix, listings
		return nil
	})
	eg.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		pages, err := paginate.Plan(c.Documents(), opts.PageSize, opts.EmptyListing)
		if err != nil {
			return err
		}
		bs.Listing = pages
		return nil
	})
	eg.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		bs.Search = search.Build(c, search.Options{
			ExcerptLength: opts.ExcerptLength,
			Text:          g.renderer.PlainText,
		})
		return nil
	})
	eg.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		bs.FeedItems = feed.Generate(c, opts.FeedLimit)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	r := bs.Report
	r.Tags = bs.Tags.Len()
	r.ListingPages = len(bs.Listing)
	for _, tl := range bs.TagPages {
		r.TagPages += len(tl.Pages)
	}
	r.SearchRecords = len(bs.Search)
	r.FeedEntries = len(bs.FeedItems)
	for _, term := range bs.Tags.ByCount() {
		if len(r.TopTags) == topTagCount {
			break
		}
		r.TopTags = append(r.TopTags, TagCount{Name: term.Name, Count: term.Count()})
	}
	g.recorder.SetTags(r.Tags)
	g.logger.Debug("Built views",
		"tags", r.Tags,
		"listing_pages", r.ListingPages,
		"tag_pages", r.TagPages,
		"search_records", r.SearchRecords,
		"feed_entries", r.FeedEntries)
	return nil
}

func stageRenderDocuments(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	c := bs.Corpus
	bs.HTML = make([][]byte, c.Len())

	workers := g.config.Build.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range c.Len() {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d := c.At(i)
			html, err := g.renderer.Render(d.Body)
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryBuild, "render document").
					WithSource(d.Source).
					WithContext(ferrors.ContextSlug, d.Slug).
					Build()
			}
			bs.HTML[i] = html
			return nil
		})
	}
	return eg.Wait()
}

func stageWriteArtifacts(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	if err := checkOutputDir(g.config.Content.Directory, g.outputDir); err != nil {
		return err
	}

	arts, err := collectArtifacts(bs)
	if err != nil {
		return err
	}
	if err := bs.beginStaging(); err != nil {
		return err
	}

	m := manifest.New(generatorName)
	digest, err := manifest.ConfigDigest(struct {
		Site config.SiteConfig
		Core config.CoreOptions
	}{g.config.Site, g.config.BuildOptions()})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "digest configuration").Build()
	}
	m.Inputs.ConfigDigest = digest
	for _, d := range bs.Corpus.Documents() {
		m.AddDocument(d.Slug, d.Source, d.Fingerprint)
	}

	kinds := map[string]int{}
	for _, a := range arts {
		if err := bs.writeStaged(a.Path, a.Data); err != nil {
			return err
		}
		m.AddArtifact(a.Path, a.Data)
		kinds[a.Kind]++
		g.logger.Debug("Wrote artifact", logfields.Artifact(a.Kind), logfields.Path(a.Path))
	}
	for kind, n := range kinds {
		g.recorder.AddArtifacts(kind, n)
	}

	bs.Artifacts = arts
	bs.Manifest = m
	bs.Report.Artifacts = len(arts)
	return nil
}

// collectArtifacts encodes every view. Order is fixed: listing, tag index,
// tag listings, posts, search payload, feed.
func collectArtifacts(bs *BuildState) ([]Artifact, error) {
	g := bs.Generator
	var arts []Artifact
	add := func(path, kind string, v any) error {
		data, err := encodeJSON(v)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "encode artifact").
				WithContext(logfields.KeyPath, path).Build()
		}
		arts = append(arts, Artifact{Path: path, Kind: kind, Data: data})
		return nil
	}

	for _, p := range bs.Listing {
		if err := add(ListingURL(p.Number)+pageFile, KindListing, listingPayload("", p, ListingURL)); err != nil {
			return nil, err
		}
	}

	index := tagIndexPayload{Tags: make([]tagEntry, 0, len(bs.TagPages))}
	for _, tl := range bs.TagPages {
		index.Tags = append(index.Tags, tagEntry{Name: tl.Term.Name, Count: tl.Term.Count(), URL: TagURL(tl.Term.Name, 1)})
	}
	if err := add(TagIndexFile, KindTagIndex, index); err != nil {
		return nil, err
	}
	for _, tl := range bs.TagPages {
		name := tl.Term.Name
		urlFor := func(n int) string { return TagURL(name, n) }
		for _, p := range tl.Pages {
			if err := add(filePath(TagURL(name, p.Number))+pageFile, KindTagListing, listingPayload(name, p, urlFor)); err != nil {
				return nil, err
			}
		}
	}

	c := bs.Corpus
	for i := range c.Len() {
		d := c.At(i)
		post := postPage{docSummary: summarize(d), HTML: string(bs.HTML[i])}
		if i > 0 {
			post.Newer = feed.PostPath(c.At(i - 1).Slug)
		}
		if i+1 < c.Len() {
			post.Older = feed.PostPath(c.At(i + 1).Slug)
		}
		if err := add(filePath(feed.PostPath(d.Slug))+pageFile, KindPost, post); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := search.Encode(&buf, bs.Search); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "encode search payload").Build()
	}
	arts = append(arts, Artifact{Path: SearchFile, Kind: KindSearch, Data: bytes.Clone(buf.Bytes())})

	buf.Reset()
	site := g.config.Site
	ch := feed.Channel{
		Title:       site.Title,
		Link:        site.BaseURL,
		Description: site.Description,
		Language:    site.Language,
		FeedPath:    FeedFile,
	}
	if err := feed.WriteRSS(&buf, ch, bs.FeedItems); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "write feed").Build()
	}
	arts = append(arts, Artifact{Path: FeedFile, Kind: KindFeed, Data: bytes.Clone(buf.Bytes())})

	return arts, nil
}

func stageWriteManifest(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	m := bs.Manifest
	m.Sort()
	data, err := m.ToJSON()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode manifest").Build()
	}
	if err := bs.writeStaged(manifest.FileName, data); err != nil {
		return err
	}
	g.recorder.AddArtifacts(KindManifest, 1)
	bs.Report.ManifestDigest = m.Digest()

	prev, err := readManifest(g.outputDir)
	if err != nil {
		g.logger.Warn("Ignoring unreadable previous manifest", logfields.Error(err))
	}
	bs.Report.Changes = m.Diff(prev)
	g.logger.Info("Manifest written",
		slog.String("digest", bs.Report.ManifestDigest),
		slog.Int("added", len(bs.Report.Changes.Added)),
		slog.Int("modified", len(bs.Report.Changes.Modified)),
		slog.Int("removed", len(bs.Report.Changes.Removed)))
	return nil
}

func stagePublish(_ context.Context, bs *BuildState) error {
	if !bs.Generator.config.Output.Clean {
		if err := bs.preserveUnmanaged(); err != nil {
			return err
		}
	}
	return bs.finalizeStaging()
}

// readManifest loads the manifest of the currently published site. A
// missing site yields nil without error.
func readManifest(outputDir string) (*manifest.BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, manifest.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return manifest.FromJSON(data)
}
