package content

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// LoadOptions tunes document loading.
type LoadOptions struct {
	// Workers bounds concurrent parsing; zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// LoadDir loads every Markdown document under root.
func LoadDir(ctx context.Context, root string, opts LoadOptions) ([]*Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "content directory not readable").
			Fatal().WithContext("path", root).Build()
	}
	if !info.IsDir() {
		return nil, ferrors.FileSystemError("content path is not a directory").WithContext("path", root).Build()
	}
	return LoadFS(ctx, os.DirFS(root), opts)
}

// LoadFS loads every Markdown document in fsys, parsing files concurrently.
//
// Documents are returned ordered by source path. Parse failures do not stop
// the other files from being parsed: every failure is collected and returned
// joined, so one run reports all broken documents. Read failures and
// cancellation abort immediately.
func LoadFS(ctx context.Context, fsys fs.FS, opts LoadOptions) ([]*Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := discover(fsys)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered documents", logfields.Count(len(paths)))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	docs := make([]*Document, len(paths))
	parseErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := fs.ReadFile(fsys, p)
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read document").
					Fatal().WithSource(p).Build()
			}
			docs[i], parseErrs[i] = Parse(p, raw)
			if parseErrs[i] != nil {
				logger.Debug("Document rejected", logfields.Source(p), logfields.Error(parseErrs[i]))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failures []error
	for _, err := range parseErrs {
		failures = append(failures, Flatten(err)...)
	}
	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return docs, nil
}

// discover lists Markdown sources in lexical order, skipping hidden entries.
func discover(fsys fs.FS) ([]string, error) {
	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkdown(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk content directory").Fatal().Build()
	}
	return paths, nil
}

// IsMarkdown reports whether a path names a Markdown source.
func IsMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}
